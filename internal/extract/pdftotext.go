package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/net/html"

	"github.com/ppiankov/teachload/internal/model"
	"github.com/ppiankov/teachload/internal/worker"
)

// PdftotextOptions configures the poppler backend.
type PdftotextOptions struct {
	Binary      string
	Workers     int
	PageTimeout time.Duration
	Layout      Layout
}

// PdftotextBackend shells out to poppler's pdftotext, one process per page.
// Pages run in parallel; spawns are throttled by the limiter.
type PdftotextBackend struct {
	opts    PdftotextOptions
	runner  Runner
	limiter *worker.Limiter
	logger  *slog.Logger

	// pageCount is replaceable in tests.
	pageCount func(path string) (int, error)
}

// NewPdftotextBackend creates the backend. A nil runner uses ExecRunner; a
// nil limiter disables throttling.
func NewPdftotextBackend(opts PdftotextOptions, runner Runner, limiter *worker.Limiter, logger *slog.Logger) *PdftotextBackend {
	if opts.Binary == "" {
		opts.Binary = "pdftotext"
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if limiter == nil {
		limiter = worker.NewLimiter(0, 1)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PdftotextBackend{
		opts:      opts,
		runner:    runner,
		limiter:   limiter,
		logger:    logger,
		pageCount: countPages,
	}
}

// Name returns "pdftotext".
func (b *PdftotextBackend) Name() string { return "pdftotext" }

// Fingerprint returns the layout settings used for grids.
func (b *PdftotextBackend) Fingerprint() string { return b.opts.Layout.Fingerprint() }

// CanHandle matches .pdf files.
func (b *PdftotextBackend) CanHandle(path string) bool { return hasExt(path, ".pdf") }

// countPages reads the page count with pdfcpu.
func countPages(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	n, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}

// pageJob runs pdftotext for a single page.
type pageJob struct {
	backend *PdftotextBackend
	path    string
	page    int
	args    []string
}

type pageOutput struct {
	page int
	out  []byte
	err  error
}

func (r *pageOutput) GetError() error { return r.err }

func (j *pageJob) Execute(ctx context.Context) worker.Result {
	b := j.backend
	if err := b.limiter.Wait(ctx, b.Name()); err != nil {
		return &pageOutput{page: j.page, err: err}
	}

	if b.opts.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.PageTimeout)
		defer cancel()
	}

	n := strconv.Itoa(j.page)
	args := append(append([]string{}, j.args...), "-f", n, "-l", n, j.path, "-")
	out, err := b.runner.Run(ctx, b.opts.Binary, args...)
	if err != nil {
		return &pageOutput{page: j.page, err: fmt.Errorf("page %d: %w", j.page, err)}
	}
	return &pageOutput{page: j.page, out: out}
}

// runPages runs pdftotext over every page and returns outputs in page order.
// The first failing page fails the whole document.
func (b *PdftotextBackend) runPages(ctx context.Context, path string, args ...string) ([]*pageOutput, error) {
	total, err := b.pageCount(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	b.logger.Debug("running pdftotext", "path", path, "pages", total, "workers", b.opts.Workers)

	jobs := make([]worker.Job, total)
	for i := range jobs {
		jobs[i] = &pageJob{backend: b, path: path, page: i + 1, args: args}
	}

	results := worker.Run(ctx, b.opts.Workers, jobs)

	outputs := make([]*pageOutput, total)
	for i, r := range results {
		if r == nil {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("page %d was not extracted", i+1)
		}
		if err := r.GetError(); err != nil {
			return nil, err
		}
		outputs[i] = r.(*pageOutput)
	}
	return outputs, nil
}

// ExtractText returns the -layout text of every page. Pages with no text
// have nil content.
func (b *PdftotextBackend) ExtractText(ctx context.Context, path string) ([]model.TextPage, error) {
	outputs, err := b.runPages(ctx, path, "-layout", "-enc", "UTF-8")
	if err != nil {
		return nil, err
	}

	pages := make([]model.TextPage, len(outputs))
	for i, o := range outputs {
		// pdftotext ends every page with a form feed.
		text := strings.TrimRight(string(o.out), "\f")
		if strings.TrimSpace(text) == "" {
			pages[i] = model.TextPage{Page: o.page}
			continue
		}
		pages[i] = model.NewTextPage(o.page, text)
	}
	return pages, nil
}

// ExtractGrid runs -bbox-layout and groups the positioned words into one
// table per page.
func (b *PdftotextBackend) ExtractGrid(ctx context.Context, path string) ([]model.GridTable, error) {
	outputs, err := b.runPages(ctx, path, "-bbox-layout", "-enc", "UTF-8")
	if err != nil {
		return nil, err
	}

	var tables []model.GridTable
	for _, o := range outputs {
		words, err := parseBBox(o.out)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", o.page, err)
		}
		rows := b.opts.Layout.grid(words, true)
		if len(rows) == 0 {
			continue
		}
		tables = append(tables, model.GridTable{Page: o.page, Table: 1, Rows: rows})
	}
	return tables, nil
}

// parseBBox reads the <word xMin yMin xMax yMax> elements of pdftotext's
// bbox XHTML. Attribute names arrive lowercased from the HTML parser.
func parseBBox(data []byte) ([]box, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse bbox output: %w", err)
	}

	var words []box
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "word" {
			if w, ok := wordBox(n); ok {
				words = append(words, w)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return words, nil
}

func wordBox(n *html.Node) (box, bool) {
	var b box
	var seen int
	for _, a := range n.Attr {
		v, err := strconv.ParseFloat(a.Val, 64)
		if err != nil {
			continue
		}
		switch a.Key {
		case "xmin":
			b.x0 = v
		case "ymin":
			b.y0 = v
		case "xmax":
			b.x1 = v
		case "ymax":
			b.y1 = v
		default:
			continue
		}
		seen++
	}

	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			text.WriteString(c.Data)
		}
	}
	b.text = strings.TrimSpace(text.String())
	return b, seen == 4 && b.text != ""
}
