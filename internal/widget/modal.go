package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/notedis/internal/annotate"
	"github.com/example/notedis/internal/capture"
	"github.com/example/notedis/internal/feedback"
)

// FormState is the visible phase of the feedback form.
type FormState int

const (
	StateEditing FormState = iota
	StateLoading
	StateSuccess
	StateError
	StateUpsell
	StateClosed
)

func (s FormState) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	case StateUpsell:
		return "upsell"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("FormState(%d)", int(s))
}

// Delays between form phases.
const (
	SuccessCloseDelay = 2 * time.Second
	ErrorRetryDelay   = 3 * time.Second
	// CaptureDelay lets the form disappear before the screen is grabbed.
	CaptureDelay = 300 * time.Millisecond
)

const successMessage = "Thank you! Your feedback has been submitted successfully."

var ErrNotEditable = errors.New("form is not accepting input")

// NoticeKind colours a notice.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeError
)

// Notice is a dismissable message shown with the form.
type Notice struct {
	Kind NoticeKind
	Text string
}

// Modal is one open feedback form. Its methods are safe to call from the
// timer goroutines that drive delayed transitions.
type Modal struct {
	mu sync.Mutex

	siteKey string
	api     API
	after   AfterFunc
	log     *logrus.Entry

	form        feedback.Form
	page        feedback.PageContext
	screenshot  *annotate.Store
	upload      *capture.Upload
	uploadLimit int64

	state       FormState
	notice      *Notice
	quota       *feedback.QuotaError
	upgradeSent bool
	stops       []func() bool
	onClose     func()
}

func newModal(siteKey string, api API, page feedback.PageContext, after AfterFunc, log *logrus.Entry) *Modal {
	return &Modal{
		siteKey: siteKey,
		api:     api,
		after:   after,
		log:     log,
		form:    feedback.NewForm(),
		page:    page,
	}
}

func (m *Modal) State() FormState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Notice returns the current notice, if any.
func (m *Modal) Notice() *Notice {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.notice == nil {
		return nil
	}
	n := *m.notice
	return &n
}

// DismissNotice clears the notice.
func (m *Modal) DismissNotice() {
	m.mu.Lock()
	m.notice = nil
	m.mu.Unlock()
}

// Quota returns the error that put the form into the upsell state.
func (m *Modal) Quota() *feedback.QuotaError {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quota
}

func (m *Modal) Form() feedback.Form {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.form
}

// SetForm replaces the typed fields while the form is editable.
func (m *Modal) SetForm(f feedback.Form) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateEditing && m.state != StateUpsell {
		return ErrNotEditable
	}
	m.form = f
	return nil
}

// SetUploadLimit overrides capture.MaxUploadBytes.
func (m *Modal) SetUploadLimit(n int64) {
	m.mu.Lock()
	m.uploadLimit = n
	m.mu.Unlock()
}

// AttachScreenshot sets the captured surface and its annotations.
func (m *Modal) AttachScreenshot(store *annotate.Store) {
	m.mu.Lock()
	m.screenshot = store
	m.mu.Unlock()
}

func (m *Modal) RemoveScreenshot() {
	m.mu.Lock()
	m.screenshot = nil
	m.mu.Unlock()
}

func (m *Modal) Screenshot() *annotate.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.screenshot
}

// CaptureFailed shows the notice for a failed capture. The form stays as it
// was so the user can upload instead.
func (m *Modal) CaptureFailed(err error) {
	m.mu.Lock()
	m.notice = &Notice{Kind: NoticeError, Text: capture.Message(err)}
	m.mu.Unlock()
	m.log.WithError(err).Warn("screen capture failed")
}

// AttachUpload validates and keeps an uploaded image. Rejected files leave
// the previous upload in place and raise a notice.
func (m *Modal) AttachUpload(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := capture.NewUpload(name, data, m.uploadLimit)
	if err != nil {
		m.notice = &Notice{Kind: NoticeError, Text: capture.Message(err)}
		return err
	}
	m.upload = u
	return nil
}

func (m *Modal) RemoveUpload() {
	m.mu.Lock()
	m.upload = nil
	m.mu.Unlock()
}

func (m *Modal) Upload() *capture.Upload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upload
}

// Submit validates the form and posts it. The form moves through Loading to
// Success, Error or Upsell.
func (m *Modal) Submit(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateEditing {
		m.mu.Unlock()
		return ErrNotEditable
	}
	if err := m.form.Validate(); err != nil {
		m.notice = &Notice{Kind: NoticeError, Text: err.Error()}
		m.mu.Unlock()
		return err
	}
	m.state = StateLoading
	m.notice = nil
	payload, perr := feedback.BuildPayload(m.siteKey, m.form, m.page, feedback.Attachments{
		Screenshot: m.screenshot,
		Upload:     m.upload,
	})
	m.mu.Unlock()
	if perr != nil {
		m.log.WithError(perr).Warn("screenshot processing failed")
	}

	err := m.api.Submit(ctx, payload)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateLoading {
		return err
	}
	var qe *feedback.QuotaError
	switch {
	case err == nil:
		m.state = StateSuccess
		m.notice = &Notice{Kind: NoticeSuccess, Text: successMessage}
		m.schedule(SuccessCloseDelay, m.Close)
	case errors.As(err, &qe):
		m.state = StateUpsell
		m.quota = qe
		m.notice = &Notice{Kind: NoticeError, Text: qe.Error()}
		m.log.WithField("error_type", qe.Type).Info("feedback quota reached")
	default:
		m.state = StateError
		m.notice = &Notice{Kind: NoticeError, Text: feedback.UserMessage(err)}
		m.log.WithError(err).Warn("feedback submission failed")
		m.schedule(ErrorRetryDelay, m.retry)
	}
	return err
}

func (m *Modal) retry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateError {
		m.state = StateEditing
		m.notice = nil
	}
}

// CanRequestUpgrade reports whether the upsell view may offer to email the
// site owner.
func (m *Modal) CanRequestUpgrade() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateUpsell && m.quota != nil && m.quota.OwnerEmail != "" && !m.upgradeSent
}

// RequestUpgrade sends the upgrade request using the form's email. After a
// success it cannot be sent again.
func (m *Modal) RequestUpgrade(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.state != StateUpsell || m.upgradeSent {
		m.mu.Unlock()
		return "", ErrNotEditable
	}
	email := m.form.Email
	m.mu.Unlock()

	msg, err := m.api.RequestUpgrade(ctx, email)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		text := feedback.UserMessage(err)
		if errors.Is(err, feedback.ErrInvalidEmail) {
			text = "Please enter a valid email address in the form first"
		}
		m.notice = &Notice{Kind: NoticeError, Text: text}
		return "", err
	}
	m.upgradeSent = true
	m.notice = &Notice{Kind: NoticeSuccess, Text: msg}
	return msg, nil
}

func (m *Modal) schedule(d time.Duration, f func()) {
	m.stops = append(m.stops, m.after(d, f))
}

// Close hides the form and cancels pending transitions.
func (m *Modal) Close() {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	m.state = StateClosed
	m.screenshot = nil
	stops := m.stops
	m.stops = nil
	onClose := m.onClose
	m.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
	if onClose != nil {
		onClose()
	}
	m.log.Debug("feedback form closed")
}
