// Package templates renders HTML fragments for HTMX clients.
package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// ErrorAlert renders a right-to-left alert box with the user message, the
// suggested action and the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-error" role="alert" dir="rtl">`)
		b.WriteString(`<p class="alert-message">`)
		b.WriteString(templ.EscapeString(message))
		b.WriteString(`</p>`)
		if action != "" {
			b.WriteString(`<p class="alert-action">`)
			b.WriteString(templ.EscapeString(action))
			b.WriteString(`</p>`)
		}
		b.WriteString(`<small class="alert-code">`)
		b.WriteString(templ.EscapeString(code))
		b.WriteString(`</small></div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
