package notify

import (
	"context"
	"embed"
	"fmt"
	"html"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmanzer2/lead-gen/pkg/logging"
)

// Template names.
const (
	TemplateConfirmation = "confirmation"
	TemplateAdminAlert   = "admin_alert"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateSource loads raw template bodies by name.
type TemplateSource interface {
	Load(ctx context.Context, name string) (string, error)
}

// EmbeddedTemplates serves the templates compiled into the binary.
type EmbeddedTemplates struct{}

func (EmbeddedTemplates) Load(_ context.Context, name string) (string, error) {
	data, err := templateFS.ReadFile(path.Join("templates", name+".html"))
	if err != nil {
		return "", fmt.Errorf("notify: load embedded template %q: %w", name, err)
	}
	return string(data), nil
}

// S3API is the subset of the S3 client used by S3Templates.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Templates loads templates from s3://bucket/prefix/<name>.html so copy can
// change without a deploy.
type S3Templates struct {
	client S3API
	bucket string
	prefix string
}

func NewS3Templates(client S3API, bucket, prefix string) *S3Templates {
	if client == nil {
		panic("notify: s3 client cannot be nil")
	}
	if bucket == "" {
		panic("notify: template bucket cannot be empty")
	}
	return &S3Templates{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Templates) Load(ctx context.Context, name string) (string, error) {
	key := name + ".html"
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("notify: s3 get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("notify: read s3 template %s: %w", key, err)
	}
	return string(data), nil
}

// fallbackTemplates are used when the configured source cannot load a template.
var fallbackTemplates = map[string]string{
	TemplateConfirmation: "<p>Hi {{first_name}},</p><p>Thanks for contacting us about your smart home project. We will be in touch soon.</p>",
	TemplateAdminAlert:   "<p>New lead #{{id}} from {{full_name}} ({{email}}, {{phone_number}}).</p><p>{{comments}}</p>",
}

// Renderer fills {{field}} placeholders in templates from a TemplateSource.
type Renderer struct {
	source TemplateSource
	logger *logging.Logger
}

func NewRenderer(source TemplateSource, logger *logging.Logger) *Renderer {
	if source == nil {
		source = EmbeddedTemplates{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Renderer{source: source, logger: logger}
}

// Render returns the named template with fields substituted. It never fails:
// a template that cannot be loaded is replaced by a minimal inline message and
// fallback is reported as true.
func (r *Renderer) Render(ctx context.Context, name string, fields map[string]string) (body string, fallback bool) {
	body, err := r.source.Load(ctx, name)
	if err != nil {
		fallback = true
		r.logger.Warn("template load failed, using fallback", "template", name, "error", err)
		body = fallbackTemplates[name]
		if body == "" {
			body = "<p>{{comments}}</p>"
		}
	}
	return Substitute(body, fields), fallback
}

// Substitute replaces each {{key}} with the HTML-escaped value in a single
// pass. Placeholders without a field are left untouched.
func Substitute(body string, fields map[string]string) string {
	if len(fields) == 0 {
		return body
	}
	pairs := make([]string, 0, len(fields)*2)
	for k, v := range fields {
		pairs = append(pairs, "{{"+k+"}}", html.EscapeString(v))
	}
	return strings.NewReplacer(pairs...).Replace(body)
}
