// internal/page/alert.go
package page

import (
	"context"

	"go.uber.org/zap"
)

// AcceptAlert accepts the open dialog.
func (p *Page) AcceptAlert(ctx context.Context) error {
	err := p.ready()
	if err == nil {
		err = p.do(ctx, p.driver.AcceptAlert)
	}
	if err == nil {
		p.logger.Info("Accepting the alert.")
	}
	return p.finish(VerbAcceptAlert, nil, err)
}

// DismissAlert dismisses the open dialog.
func (p *Page) DismissAlert(ctx context.Context) error {
	err := p.ready()
	if err == nil {
		err = p.do(ctx, p.driver.DismissAlert)
	}
	if err == nil {
		p.logger.Info("Dismissing the alert.")
	}
	return p.finish(VerbDismissAlert, nil, err)
}

// AuthenticateAlert answers HTTP authentication challenges with the given
// credentials. It applies to challenges raised after the call.
func (p *Page) AuthenticateAlert(ctx context.Context, username, password string) error {
	err := p.ready()
	if err == nil {
		err = p.do(ctx, func(ctx context.Context) error { return p.driver.Authenticate(ctx, username, password) })
	}
	if err == nil {
		p.logger.Info("Authenticated using credentials.", zap.String("username", username))
	}
	return p.finish(VerbAuthenticateAlert, nil, err)
}

// AlertText returns the message of the open dialog.
func (p *Page) AlertText(ctx context.Context) (string, error) {
	if err := p.ready(); err != nil {
		return "", p.finish(VerbAlertText, nil, err)
	}
	var text string
	err := p.do(ctx, func(ctx context.Context) error {
		var aerr error
		text, aerr = p.driver.AlertText(ctx)
		return aerr
	})
	if err != nil {
		return "", p.finish(VerbAlertText, nil, err)
	}
	p.logger.Info("Extracted alert text.", zap.String("text", text))
	return text, nil
}

// SetAlertText types value into the open prompt. It is submitted when the
// prompt is accepted.
func (p *Page) SetAlertText(ctx context.Context, value string) error {
	err := p.ready()
	if err == nil {
		err = p.do(ctx, func(ctx context.Context) error { return p.driver.SetAlertText(ctx, value) })
	}
	if err == nil {
		p.logger.Info("Set value in the alert.", zap.String("value", value))
	}
	return p.finish(VerbSetAlertText, nil, err)
}
