package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/bwmarrin/snowflake"
	applicationdomain "github.com/voluntaria/platform/internal/application/domain"
	"github.com/voluntaria/platform/internal/clock"
	"github.com/voluntaria/platform/internal/notification/domain"
	"github.com/voluntaria/platform/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Dispatcher delivers the side effects of a committed transition. Everything
// here is best-effort: an email-provider outage or a failed insert is
// reported (or just logged) but never unwinds the transition.

const (
	approvedEmailSubject = "Sua candidatura foi aprovada! 🎉"
	rejectedEmailSubject = "Atualização sobre sua candidatura"
)

var approvedEmailTmpl = template.Must(template.New("approved").Parse(`
<h2>Olá, {{.VolunteerName}}!</h2>
<p>Boas notícias: sua candidatura para o evento <strong>{{.EventTitle}}</strong> foi <strong>aprovada</strong>.</p>
<p>A organização entrará em contato com os próximos passos. Obrigado por fazer a diferença!</p>
`))

var rejectedEmailTmpl = template.Must(template.New("rejected").Parse(`
<h2>Olá, {{.VolunteerName}}.</h2>
<p>Infelizmente sua candidatura para o evento <strong>{{.EventTitle}}</strong> não foi aceita desta vez.</p>
<p>Não desanime — há muitas outras oportunidades esperando por você na plataforma.</p>
`))

type emailData struct {
	VolunteerName string
	EventTitle    string
}

type DispatcherParams struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Provider email.Provider
}

type Dispatcher struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	provider email.Provider
}

func NewDispatcher(p DispatcherParams) domain.Dispatcher {
	return &Dispatcher{
		db:       p.DB,
		log:      p.Log.Named("notification.dispatcher"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		provider: p.Provider,
	}
}

// DispatchTransition sends the outcome email (approve/reject) and writes the
// in-app notification row (approve/reject/cancel). The returned Result
// reflects the email leg; the in-app insert is always attempted and its
// failure only logged.
func (d *Dispatcher) DispatchTransition(ctx context.Context, notice domain.TransitionNotice) domain.Result {
	result := domain.Result{Status: domain.StatusSkipped}

	switch notice.Action {
	case applicationdomain.ActionApprove, applicationdomain.ActionReject:
		result = d.sendEmail(ctx, notice)
	case applicationdomain.ActionCancel:
		// No email for cancellations; the in-app record below is enough.
	default:
		return result
	}

	d.insertInApp(ctx, notice)
	return result
}

func (d *Dispatcher) sendEmail(ctx context.Context, notice domain.TransitionNotice) domain.Result {
	volunteer := notice.Application.Volunteer
	if volunteer == nil || volunteer.Email == "" {
		return domain.Result{
			Status: domain.StatusSkipped,
			Error:  "voluntário sem e-mail cadastrado",
		}
	}

	subject := approvedEmailSubject
	tmpl := approvedEmailTmpl
	if notice.Action == applicationdomain.ActionReject {
		subject = rejectedEmailSubject
		tmpl = rejectedEmailTmpl
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, emailData{
		VolunteerName: volunteer.Name,
		EventTitle:    eventTitle(notice.Application),
	}); err != nil {
		return domain.Result{Status: domain.StatusFailed, Error: err.Error()}
	}

	receipt, err := d.provider.Send(ctx, email.Message{
		To:      volunteer.Email,
		Subject: subject,
		HTML:    body.String(),
	})
	if err != nil {
		return domain.Result{Status: domain.StatusFailed, Error: err.Error()}
	}
	if !receipt.Success {
		message := receipt.Message
		if message == "" {
			message = "falha ao enviar e-mail"
		}
		return domain.Result{Status: domain.StatusFailed, Error: message}
	}

	return domain.Result{Status: domain.StatusSent}
}

func (d *Dispatcher) insertInApp(ctx context.Context, notice domain.TransitionNotice) {
	application := notice.Application
	notificationType, title, message := inAppContent(notice.Action, application)
	status := string(application.Status)

	row := &domain.Notification{
		ID:      d.genID.Generate(),
		UserID:  application.VolunteerID,
		Type:    notificationType,
		Title:   title,
		Message: message,
		Status:  &status,
		Link:    fmt.Sprintf("/eventos/%s", application.EventID.String()),
		Data: datatypes.JSONMap{
			"application_id": application.ID.String(),
			"event_id":       application.EventID.String(),
		},
		CreatedAt: d.clock.Now(),
	}

	if err := d.repo.Insert(ctx, d.db, row); err != nil {
		d.log.Warn("in-app notification insert failed",
			zap.String("application_id", application.ID.String()),
			zap.String("type", string(notificationType)),
			zap.Error(err),
		)
	}
}

func inAppContent(action applicationdomain.Action, application applicationdomain.Application) (domain.Type, string, string) {
	title := eventTitle(application)
	switch action {
	case applicationdomain.ActionApprove:
		return domain.TypeApproved,
			"Candidatura aprovada",
			fmt.Sprintf("Sua candidatura para o evento %q foi aprovada.", title)
	case applicationdomain.ActionReject:
		return domain.TypeRejected,
			"Candidatura não aceita",
			fmt.Sprintf("Sua candidatura para o evento %q não foi aceita.", title)
	default:
		return domain.TypeUpdated,
			"Candidatura cancelada",
			fmt.Sprintf("Sua candidatura para o evento %q foi cancelada.", title)
	}
}

func eventTitle(application applicationdomain.Application) string {
	if application.Event != nil && application.Event.Title != "" {
		return application.Event.Title
	}
	return "evento"
}
