// Package escl provides an engine.Engine backed by a network scanner speaking
// the eSCL (AirScan) protocol. Prepare checks the scanner is idle, Run creates
// a scan job and pulls pages until the device reports the job exhausted.
package escl

import (
	"bytes"
	"context"
	"docscan/internal/engine"
	"docscan/internal/resource"
	"docscan/pkg/logger"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// StateIdle is the scanner state in which new jobs are accepted.
	StateIdle = "Idle"

	defaultPollInterval = time.Second
	defaultResolution   = 300
	defaultColorMode    = "RGB24"
	defaultSource       = "Feeder"
)

// ErrBusy is returned by Prepare when the scanner is not idle.
var ErrBusy = errors.New("scanner is busy")

// Options configure the eSCL engine.
type Options struct {
	// URL is the eSCL root, e.g. http://printer.local/eSCL.
	URL string
	// PageStore is the directory pages are written to.
	PageStore string
	// PollInterval is how long to wait when the device answers 503 while a page
	// is still being produced.
	PollInterval time.Duration
	// Resolution in DPI for both axes.
	Resolution int
	// ColorMode is one of RGB24, Grayscale8 or BlackAndWhite1.
	ColorMode string
	// Source is Platen or Feeder.
	Source string
}

// Engine talks to one eSCL scanner. It is safe for concurrent use.
type Engine struct {
	httpClient *http.Client
	base       *url.URL
	opts       Options
}

// Ensure Engine conforms to the engine.Engine interface at compile time.
var _ engine.Engine = (*Engine)(nil)

// New constructs an Engine using httpClient for every request.
func New(httpClient *http.Client, opts Options) (*Engine, error) {
	base, err := url.Parse(strings.TrimSuffix(opts.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("could not parse eSCL url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("eSCL url %q must be absolute", opts.URL)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.Resolution <= 0 {
		opts.Resolution = defaultResolution
	}
	if opts.ColorMode == "" {
		opts.ColorMode = defaultColorMode
	}
	if opts.Source == "" {
		opts.Source = defaultSource
	}
	if opts.PageStore == "" {
		opts.PageStore = os.TempDir()
	}

	return &Engine{httpClient: httpClient, base: base, opts: opts}, nil
}

// ScanSettings is the job creation document.
type ScanSettings struct {
	XMLName           xml.Name `xml:"scan:ScanSettings"`
	ScanNS            string   `xml:"xmlns:scan,attr"`
	PwgNS             string   `xml:"xmlns:pwg,attr"`
	Version           string   `xml:"pwg:Version"`
	Intent            string   `xml:"scan:Intent"`
	InputSource       string   `xml:"pwg:InputSource"`
	ColorMode         string   `xml:"scan:ColorMode"`
	XResolution       int      `xml:"scan:XResolution"`
	YResolution       int      `xml:"scan:YResolution"`
	DocumentFormat    string   `xml:"pwg:DocumentFormat"`
	DocumentFormatExt string   `xml:"scan:DocumentFormatExt"`
}

// ScannerStatus is the subset of the status document the engine reads.
type ScannerStatus struct {
	State    string `xml:"State"`
	ADFState string `xml:"AdfState"`
}

// Settings builds the job document for cfg.
func (e *Engine) Settings(cfg engine.Config) ScanSettings {
	format := string(cfg.Format)
	if format == "" {
		format = string(engine.FormatJPEG)
	}

	return ScanSettings{
		ScanNS:            "http://schemas.hp.com/imaging/escl/2011/05/03",
		PwgNS:             "http://www.pwg.org/schemas/2010/12/sm",
		Version:           "2.6",
		Intent:            "Document",
		InputSource:       e.opts.Source,
		ColorMode:         e.opts.ColorMode,
		XResolution:       e.opts.Resolution,
		YResolution:       e.opts.Resolution,
		DocumentFormat:    format,
		DocumentFormatExt: format,
	}
}

// Status fetches the scanner status document.
func (e *Engine) Status(ctx context.Context) (*ScannerStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.base.JoinPath("ScannerStatus").String(), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get status failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var st ScannerStatus
	if err := xml.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("could not decode scanner status: %w", err)
	}

	return &st, nil
}

// Prepare checks that the scanner can take a job and returns a job request
// bound to cfg. Nothing is sent to the device until Run.
func (e *Engine) Prepare(ctx context.Context, cfg engine.Config) (engine.Launchable, error) {
	st, err := e.Status(ctx)
	if err != nil {
		return nil, err
	}
	if st.State != StateIdle {
		return nil, fmt.Errorf("%w: state %s", ErrBusy, st.State)
	}

	body, err := xml.Marshal(e.Settings(cfg))
	if err != nil {
		return nil, fmt.Errorf("could not marshal scan settings: %w", err)
	}

	return &job{engine: e, cfg: cfg, settings: append([]byte(xml.Header), body...)}, nil
}

// job is one prepared eSCL scan job.
type job struct {
	engine   *Engine
	cfg      engine.Config
	settings []byte
}

// Run creates the job on the device and pulls pages. A canceled ctx or a job
// the device reports as gone yields a canceled result; an exhausted job with
// no pages is also reported as canceled.
func (j *job) Run(ctx context.Context) engine.Result {
	location, err := j.create(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return engine.Canceled()
		}

		return engine.Failed(err)
	}
	ctx = logger.WithFields(ctx, zap.String("job", location))
	logger.Debug(ctx, "eSCL job created")

	prefix := uuid.NewString()
	var pages []engine.Page
	for j.cfg.PageLimit <= 0 || len(pages) < j.cfg.PageLimit {
		data, done, err := j.next(ctx, location)
		if err != nil {
			j.cancel(location)
			if ctx.Err() != nil || errors.Is(err, errJobGone) {
				return engine.Canceled()
			}

			return engine.Failed(err)
		}
		if done {
			break
		}

		page, err := j.store(prefix, len(pages), data)
		if err != nil {
			j.cancel(location)

			return engine.Failed(err)
		}
		pages = append(pages, page)
	}
	if j.cfg.PageLimit > 0 && len(pages) >= j.cfg.PageLimit {
		// the feeder may still hold sheets
		j.cancel(location)
	}

	if len(pages) == 0 {
		return engine.Canceled()
	}
	logger.Debug(ctx, "eSCL job finished", zap.Int("pages", len(pages)))

	return engine.Completed(pages...)
}

var errJobGone = errors.New("scan job no longer exists")

func (j *job) create(ctx context.Context) (string, error) {
	e := j.engine
	req, err := http.NewRequestWithContext(ctx,
		http.MethodPost,
		e.base.JoinPath("ScanJobs").String(),
		bytes.NewReader(j.settings))
	if err != nil {
		return "", fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("could not send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)

		return "", fmt.Errorf("create job failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	loc, err := resp.Location()
	if err != nil {
		return "", fmt.Errorf("job location missing: %w", err)
	}

	return loc.String(), nil
}

// next fetches the next page. done reports an exhausted job.
func (j *job) next(ctx context.Context, location string) ([]byte, bool, error) {
	e := j.engine
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location+"/NextDocument", nil)
		if err != nil {
			return nil, false, fmt.Errorf("could not create request: %w", err)
		}

		resp, err := e.httpClient.Do(req)
		if err != nil {
			return nil, false, fmt.Errorf("could not send request: %w", err)
		}
		b, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, false, fmt.Errorf("could not read page: %w", err)
		}

		switch resp.StatusCode {
		case http.StatusOK:
			return b, false, nil
		case http.StatusNotFound:
			return nil, true, nil
		case http.StatusGone:
			return nil, false, errJobGone
		case http.StatusServiceUnavailable:
			select {
			case <-ctx.Done():
				return nil, false, ctx.Err()
			case <-time.After(e.opts.PollInterval):
			}
		default:
			return nil, false, fmt.Errorf("get page failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
		}
	}
}

func (j *job) store(prefix string, n int, data []byte) (engine.Page, error) {
	if len(data) == 0 {
		// keep the slot, the sanitizer drops it
		return engine.Page{}, nil
	}

	p := filepath.Join(j.engine.opts.PageStore, fmt.Sprintf("%s-%03d.jpg", prefix, n+1))
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return engine.Page{}, fmt.Errorf("could not store page: %w", err)
	}

	return engine.Page{URI: resource.FileURI(p)}, nil
}

// cancel deletes the job on the device. Failures are only logged.
func (j *job) cancel(location string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, location, nil)
	if err != nil {
		return
	}
	resp, err := j.engine.httpClient.Do(req)
	if err != nil {
		logger.Warn(ctx, "could not cancel eSCL job", zap.String("job", location), zap.Error(err))

		return
	}
	_ = resp.Body.Close()
}
