package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"job-autopilot/internal/domain/ports/adapter"
)

var _ adapter.Session = (*FormSession)(nil)

const sessionUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// FormSession implements the browser Session port over plain HTTP: it loads
// pages, models the application form found in the DOM, accumulates values and
// uploads, and posts the form on Submit. JavaScript-rendered flows are out of
// its reach; fillers report those as cannot-handle so the attempt escalates.
type FormSession struct {
	client  *http.Client
	onClose func()
	log     *zerolog.Logger

	mu         sync.Mutex
	currentURL *url.URL
	doc        *goquery.Document
	rawHTML    string

	formAction string
	formMethod string
	formEnc    string
	values     url.Values
	uploads    map[string]string
	closed     bool
}

func (s *FormSession) Navigate(ctx context.Context, target string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("User-Agent", sessionUA)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, resp.Request.URL.String(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentURL = resp.Request.URL
	s.rawHTML = string(body)
	s.doc, err = goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return resp.StatusCode, s.currentURL.String(), err
	}
	s.bindForm()
	return resp.StatusCode, s.currentURL.String(), nil
}

// bindForm picks the densest form on the page as the application form and
// resets accumulated state. Callers hold s.mu.
func (s *FormSession) bindForm() {
	s.values = url.Values{}
	s.uploads = map[string]string{}
	s.formAction, s.formMethod, s.formEnc = "", "", ""

	var best *goquery.Selection
	bestInputs := 0
	s.doc.Find("form").Each(func(_ int, form *goquery.Selection) {
		n := form.Find("input, textarea, select").Length()
		if n > bestInputs {
			best, bestInputs = form, n
		}
	})
	if best == nil {
		return
	}

	s.formAction, _ = best.Attr("action")
	s.formMethod = strings.ToUpper(best.AttrOr("method", http.MethodPost))
	s.formEnc = best.AttrOr("enctype", "application/x-www-form-urlencoded")

	// carry hidden inputs through untouched; boards break without them
	best.Find(`input[type="hidden"]`).Each(func(_ int, in *goquery.Selection) {
		if name, ok := in.Attr("name"); ok && name != "" {
			s.values.Set(name, in.AttrOr("value", ""))
		}
	})
}

func (s *FormSession) CurrentURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentURL == nil {
		return ""
	}
	return s.currentURL.String()
}

func (s *FormSession) Content(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return "", errors.New("no page loaded")
	}
	return s.rawHTML, nil
}

func (s *FormSession) Fields(context.Context) ([]adapter.FormField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil, errors.New("no page loaded")
	}

	var fields []adapter.FormField
	seen := map[string]bool{}
	s.doc.Find("form input, form textarea, form select").Each(func(_ int, el *goquery.Selection) {
		name, ok := el.Attr("name")
		if !ok || name == "" || seen[name] {
			return
		}
		kind := fieldKind(el)
		if kind == "hidden" || kind == "submit" || kind == "button" {
			return
		}
		seen[name] = true

		f := adapter.FormField{
			Name:     name,
			Label:    s.labelFor(el),
			Kind:     kind,
			Required: el.AttrOr("required", "") != "" || el.AttrOr("aria-required", "") == "true",
		}
		if kind == "select" {
			el.Find("option").Each(func(_ int, opt *goquery.Selection) {
				if v := strings.TrimSpace(opt.Text()); v != "" {
					f.Options = append(f.Options, v)
				}
			})
		}
		fields = append(fields, f)
	})
	return fields, nil
}

func fieldKind(el *goquery.Selection) string {
	switch goquery.NodeName(el) {
	case "textarea":
		return "textarea"
	case "select":
		return "select"
	default:
		return el.AttrOr("type", "text")
	}
}

// labelFor resolves the human-visible label: <label for=…>, the enclosing
// label, then placeholder and aria-label.
func (s *FormSession) labelFor(el *goquery.Selection) string {
	if id, ok := el.Attr("id"); ok && id != "" {
		if lbl := s.doc.Find(`label[for="` + id + `"]`).First(); lbl.Length() > 0 {
			return strings.TrimSpace(lbl.Text())
		}
	}
	if parent := el.ParentsFiltered("label").First(); parent.Length() > 0 {
		return strings.TrimSpace(parent.Text())
	}
	if ph := el.AttrOr("placeholder", ""); ph != "" {
		return ph
	}
	return el.AttrOr("aria-label", "")
}

func (s *FormSession) Fill(_ context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return errors.New("no page loaded")
	}
	s.values.Set(name, value)
	return nil
}

func (s *FormSession) Select(_ context.Context, name, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return errors.New("no page loaded")
	}

	sel := s.doc.Find(`select[name="` + name + `"]`).First()
	if sel.Length() == 0 {
		return fmt.Errorf("no select named %q", name)
	}
	var submitValue string
	sel.Find("option").EachWithBreak(func(_ int, opt *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(opt.Text()), strings.TrimSpace(option)) {
			submitValue = opt.AttrOr("value", strings.TrimSpace(opt.Text()))
			return false
		}
		return true
	})
	if submitValue == "" {
		return fmt.Errorf("select %q has no option %q", name, option)
	}
	s.values.Set(name, submitValue)
	return nil
}

func (s *FormSession) Upload(_ context.Context, name, filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("upload source: %w", err)
	}
	s.uploads[name] = filePath
	return nil
}

func (s *FormSession) ClickThrough(ctx context.Context, selector string) (string, error) {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return "", errors.New("no page loaded")
	}
	href := ""
	s.doc.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if h, ok := el.Attr("href"); ok && h != "" {
			href = h
			return false
		}
		return true
	})
	base := s.currentURL
	s.mu.Unlock()

	if href == "" {
		return "", fmt.Errorf("nothing matches %q", selector)
	}
	target, err := base.Parse(href)
	if err != nil {
		return "", err
	}
	_, finalURL, err := s.Navigate(ctx, target.String())
	if err != nil {
		return "", err
	}
	return finalURL, nil
}

// Submit posts the accumulated form state to the form action. Multipart when
// any upload is staged, urlencoded otherwise.
func (s *FormSession) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return errors.New("no page loaded")
	}
	if s.formMethod == "" {
		s.mu.Unlock()
		return errors.New("no form bound on this page")
	}
	action, err := s.currentURL.Parse(s.formAction)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	method := s.formMethod
	values := s.values
	uploads := s.uploads
	multipartForm := strings.Contains(s.formEnc, "multipart") || len(uploads) > 0
	s.mu.Unlock()

	var req *http.Request
	if multipartForm {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for k, vs := range values {
			for _, v := range vs {
				if err := w.WriteField(k, v); err != nil {
					return err
				}
			}
		}
		for field, path := range uploads {
			if err := writeFilePart(w, field, path); err != nil {
				return err
			}
		}
		if err := w.Close(); err != nil {
			return err
		}
		req, err = http.NewRequestWithContext(ctx, method, action.String(), &buf)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", w.FormDataContentType())
	} else {
		req, err = http.NewRequestWithContext(ctx, method, action.String(), strings.NewReader(values.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("User-Agent", sessionUA)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("submit rejected: HTTP %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	s.mu.Lock()
	s.currentURL = resp.Request.URL
	s.rawHTML = string(body)
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		s.doc = doc
	}
	s.mu.Unlock()
	return nil
}

func writeFilePart(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

func (s *FormSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.onClose != nil {
		s.onClose()
	}
	return nil
}
