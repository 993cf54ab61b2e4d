// Package relay exposes the HTTP endpoint the wizard submits completed
// applications to. It re-validates the payload server-side, fans the
// application out as operator and applicant mails, and answers with the
// plain-text protocol the wizard expects: "OK" on success, a human-readable
// message otherwise.
package relay

import (
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zofin/loanflow/internal/mail"
	"github.com/zofin/loanflow/pkg/product"
	"github.com/zofin/loanflow/pkg/submit"
	"github.com/zofin/loanflow/pkg/validate"
)

// Response bodies are part of the wire contract with the wizard and stay in
// the relay's operating language.
const (
	ResponseOK               = "OK"
	ResponseInvalidEmail     = "Ungültige E-Mail-Adresse."
	ResponseMethodNotAllowed = "Methode nicht erlaubt."
	ResponseServerError      = "Ein Fehler ist aufgetreten. Bitte versuchen Sie es später erneut."
)

// MaxFileSize matches the wizard-side intake ceiling. Files above it are
// skipped, not fatal, since the client already enforced the limit.
const MaxFileSize = 5 << 20

var allowedMIMETypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/png":       {},
}

// Handler serves the application submission endpoint.
type Handler struct {
	composer      *mail.Composer
	sender        mail.Sender
	operator      string
	log           *zap.Logger
	allowedOrigin string
	fieldOrder    []string
	fieldLabels   map[string]string
}

// Option customises the handler.
type Option func(*Handler)

// WithAllowedOrigin restricts CORS to one origin instead of "*".
func WithAllowedOrigin(origin string) Option {
	return func(h *Handler) {
		if origin != "" {
			h.allowedOrigin = origin
		}
	}
}

// NewHandler builds the relay handler. The operator address receives the
// application summary; field display order and labels for that mail come from
// the product catalog.
func NewHandler(composer *mail.Composer, sender mail.Sender, operator string, log *zap.Logger, options ...Option) *Handler {
	h := &Handler{
		composer:      composer,
		sender:        sender,
		operator:      operator,
		log:           log,
		allowedOrigin: "*",
		fieldLabels:   make(map[string]string),
	}

	catalog := product.Builtin()
	h.fieldOrder = product.SharedFieldNames()
	for _, name := range h.fieldOrder {
		h.fieldLabels[name] = product.FieldLabel(name)
	}
	for _, code := range catalog.Codes() {
		p, err := catalog.ByCode(code)
		if err != nil {
			continue
		}
		for _, extra := range p.Extra {
			if _, seen := h.fieldLabels[extra.Name]; seen {
				continue
			}
			h.fieldOrder = append(h.fieldOrder, extra.Name)
			h.fieldLabels[extra.Name] = extra.Label
		}
	}

	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h
}

// Register mounts the relay routes and the method gate: anything other than
// POST or the CORS preflight on /send-mail answers 405.
func (h *Handler) Register(r *gin.Engine) {
	r.HandleMethodNotAllowed = true
	r.NoMethod(h.methodNotAllowed)
	r.POST("/send-mail", h.SendMail)
	r.OPTIONS("/send-mail", h.preflight)
}

func (h *Handler) methodNotAllowed(c *gin.Context) {
	h.cors(c)
	c.String(http.StatusMethodNotAllowed, ResponseMethodNotAllowed)
}

func (h *Handler) cors(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", h.allowedOrigin)
	c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type")
	c.Header("Access-Control-Expose-Headers", submit.ApplicationIDHeader)
}

func (h *Handler) preflight(c *gin.Context) {
	h.cors(c)
	c.Status(http.StatusNoContent)
}

// SendMail handles one application submission.
func (h *Handler) SendMail(c *gin.Context) {
	h.cors(c)

	form, err := c.MultipartForm()
	if err != nil {
		h.log.Warn("rejected malformed multipart payload", zap.Error(err))
		c.String(http.StatusBadRequest, ResponseServerError)
		return
	}

	values := make(map[string]string, len(form.Value))
	for name, v := range form.Value {
		if len(v) > 0 {
			values[name] = v[0]
		}
	}

	email := strings.TrimSpace(values[product.FieldEmail])
	if !validate.Email(email) {
		c.String(http.StatusBadRequest, ResponseInvalidEmail)
		return
	}

	label := values[submit.FieldTypePret]
	if label == "" {
		label = "Demande de crédit"
	}

	reference := newReference()
	app := mail.Application{
		Reference:      reference,
		Label:          label,
		ApplicantName:  values[product.FieldName],
		ApplicantEmail: email,
		Fields:         h.orderedFields(values),
		Attachments:    h.collectAttachments(c, form.File[submit.DocumentsField]),
	}

	operator, err := h.composer.Operator(app)
	if err != nil {
		h.log.Error("compose operator mail", zap.Error(err))
		c.String(http.StatusInternalServerError, ResponseServerError)
		return
	}
	if err := h.sender.Send(c.Request.Context(), mail.Outbound{
		To:          h.operator,
		Message:     operator,
		ReplyTo:     email,
		ReplyToName: app.ApplicantName,
		Attachments: app.Attachments,
	}); err != nil {
		h.log.Error("deliver operator mail", zap.String("reference", reference), zap.Error(err))
		c.String(http.StatusInternalServerError, ResponseServerError)
		return
	}

	// The confirmation is best effort: the application has already reached
	// the operator, so a failure here must not fail the submission.
	if confirmation, err := h.composer.Applicant(app); err != nil {
		h.log.Warn("compose applicant mail", zap.String("reference", reference), zap.Error(err))
	} else if err := h.sender.Send(c.Request.Context(), mail.Outbound{
		To:              email,
		ToName:          app.ApplicantName,
		Message:         confirmation,
		ReplyTo:         h.operator,
		ListUnsubscribe: "<mailto:" + h.operator + ">",
	}); err != nil {
		h.log.Warn("deliver applicant mail", zap.String("reference", reference), zap.Error(err))
	}

	h.log.Info("application relayed",
		zap.String("reference", reference),
		zap.String("product", label),
		zap.Int("attachments", len(app.Attachments)),
	)
	c.Header(submit.ApplicationIDHeader, reference)
	c.String(http.StatusOK, ResponseOK)
}

// orderedFields lays the submitted values out in catalog order, then appends
// unknown fields sorted by name so nothing submitted is dropped.
func (h *Handler) orderedFields(values map[string]string) []mail.FieldValue {
	fields := make([]mail.FieldValue, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, name := range h.fieldOrder {
		if value, ok := values[name]; ok {
			fields = append(fields, mail.FieldValue{Label: h.fieldLabels[name], Value: value})
			seen[name] = struct{}{}
		}
	}

	var rest []string
	for name := range values {
		if name == submit.FieldTypePret {
			continue
		}
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		fields = append(fields, mail.FieldValue{Label: name, Value: values[name]})
	}
	return fields
}

// collectAttachments re-validates each uploaded file by sniffing its actual
// content. Files failing a check are skipped rather than failing the request;
// the wizard already rejected them client-side, so a mismatch here means the
// payload did not come from the wizard.
func (h *Handler) collectAttachments(c *gin.Context, files []*multipart.FileHeader) []mail.Attachment {
	var attachments []mail.Attachment
	for _, header := range files {
		if header.Size > MaxFileSize {
			h.log.Warn("skipped oversized upload",
				zap.String("filename", header.Filename), zap.Int64("size", header.Size))
			continue
		}
		f, err := header.Open()
		if err != nil {
			h.log.Warn("skipped unreadable upload",
				zap.String("filename", header.Filename), zap.Error(err))
			continue
		}
		content, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
		f.Close()
		if err != nil || int64(len(content)) > MaxFileSize {
			h.log.Warn("skipped unreadable upload",
				zap.String("filename", header.Filename), zap.Error(err))
			continue
		}
		detected := mimetype.Detect(content)
		if _, ok := allowedMIMETypes[baseMIME(detected.String())]; !ok {
			h.log.Warn("skipped upload with disallowed content",
				zap.String("filename", header.Filename), zap.String("type", detected.String()))
			continue
		}
		attachments = append(attachments, mail.Attachment{
			Filename:    header.Filename,
			ContentType: baseMIME(detected.String()),
			Content:     content,
		})
	}
	return attachments
}

func baseMIME(full string) string {
	if i := strings.IndexByte(full, ';'); i >= 0 {
		return strings.TrimSpace(full[:i])
	}
	return full
}

// newReference derives a short upper-case application ID.
func newReference() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:8])
}
