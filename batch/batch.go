package batch

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	"github.com/chaos-io/rembg/rembg"
	"github.com/chaos-io/rembg/util"
	nhttp "github.com/chaos-io/rembg/util/http"
)

// Job 一张图的输入输出路径，两者相同时原地覆盖
type Job struct {
	Input  string
	Output string
}

// Pairs 把 <in1> <out1> <in2> <out2> ... 拆成 Job
func Pairs(args []string) ([]Job, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("arguments must come in <input> <output> pairs, got %d", len(args))
	}
	jobs := make([]Job, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		jobs = append(jobs, Job{Input: args[i], Output: args[i+1]})
	}
	return jobs, nil
}

// InPlace 每个路径同时作为输入和输出
func InPlace(paths []string) []Job {
	jobs := make([]Job, 0, len(paths))
	for _, p := range paths {
		jobs = append(jobs, Job{Input: p, Output: p})
	}
	return jobs
}

type Result struct {
	Job      Job
	Width    int
	Height   int
	Removed  int
	Duration time.Duration
	Err      error
}

func (r Result) OK() bool {
	return r.Err == nil
}

// Processor 逐张读取、抠图、写出
type Processor struct {
	key    *rembg.KeyRemover
	cli    nhttp.IClient
	logger *slog.Logger
}

func NewProcessor(policy rembg.Policy, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		key:    rembg.NewKeyRemover(policy),
		cli:    nhttp.NewHTTPClient(),
		logger: logger,
	}
}

// WithClient 替换下载远程图片用的 HTTP 客户端
func (p *Processor) WithClient(cli nhttp.IClient) *Processor {
	p.cli = cli
	return p
}

// Process 处理单张图片，错误带有失败的路径和分类
func (p *Processor) Process(ctx context.Context, job Job) Result {
	start := time.Now()
	res := Result{Job: job}

	var img image.Image
	img, res.Err = util.LoadImage(ctx, p.cli, job.Input)
	if res.Err != nil {
		res.Duration = time.Since(start)
		return res
	}

	out, removed, err := p.key.Key(ctx, img)
	if err != nil {
		res.Err = &util.ImageError{Kind: util.KindProcess, Path: job.Input, Err: err}
		res.Duration = time.Since(start)
		return res
	}

	if err := util.SavePNG(job.Output, out); err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	res.Width, res.Height, res.Removed = out.Bounds().Dx(), out.Bounds().Dy(), removed
	res.Duration = time.Since(start)
	return res
}

// Run 顺序处理所有 Job，一张失败不影响后续
func (p *Processor) Run(ctx context.Context, jobs []Job) *Report {
	report := &Report{Mode: p.key.Policy().Mode}
	for _, job := range jobs {
		p.logger.Info("processing", slog.String("input", job.Input), slog.String("output", job.Output))

		res := p.Process(ctx, job)
		report.Results = append(report.Results, res)

		if res.Err != nil {
			p.logger.Error("failed to process image",
				slog.String("path", job.Input),
				slog.String("kind", util.KindOf(res.Err).String()),
				slog.String("error", res.Err.Error()))
			continue
		}
		p.logger.Info("processed image",
			slog.String("output", job.Output),
			slog.Int("width", res.Width),
			slog.Int("height", res.Height),
			slog.Int("removed", res.Removed),
			slog.Duration("elapsed", res.Duration))
	}
	return report
}

type Report struct {
	Mode    rembg.Mode
	Results []Result
}

func (r *Report) Succeeded() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.OK() {
			out = append(out, res)
		}
	}
	return out
}

func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Print 输出人类可读的汇总
func (r *Report) Print(w io.Writer) {
	for _, res := range r.Results {
		if res.OK() {
			_, _ = fmt.Fprintf(w, "ok     %s -> %s (%dx%d, %d px removed)\n",
				res.Job.Input, res.Job.Output, res.Width, res.Height, res.Removed)
			continue
		}
		_, _ = fmt.Fprintf(w, "error  %s: %v\n", res.Job.Input, res.Err)
	}
	_, _ = fmt.Fprintf(w, "%s: %d succeeded, %d failed\n", r.Mode, len(r.Succeeded()), len(r.Failed()))
}
