package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	eventdomain "github.com/voluntaria/platform/internal/event/domain"
	identitydomain "github.com/voluntaria/platform/internal/identity/domain"
	"gorm.io/gorm"
)

const (
	devOrgName        = "Instituto Mão Amiga"
	devOrgEmail       = "contato@maoamiga.org"
	devVolunteerName  = "Ana Souza"
	devVolunteerEmail = "ana.souza@example.com"
	devEventTitle     = "Mutirão de Limpeza"
)

// EnsureDevFixtures seeds one organization, one volunteer and one open event
// so a fresh local instance has something to click on. Idempotent by lookup,
// never overwrites existing rows.
func EnsureDevFixtures(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := ensureOrgTx(ctx, tx, node)
		if err != nil {
			return err
		}
		if _, err := ensureVolunteerTx(ctx, tx, node); err != nil {
			return err
		}
		return ensureEventTx(ctx, tx, node, org.ID)
	})
}

func ensureOrgTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (*identitydomain.Organization, error) {
	var org identitydomain.Organization
	err := tx.WithContext(ctx).Where("email = ?", devOrgEmail).First(&org).Error
	if err == nil {
		return &org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	org = identitydomain.Organization{
		ID:    node.Generate(),
		Name:  devOrgName,
		Email: devOrgEmail,
	}
	if err := tx.WithContext(ctx).Create(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func ensureVolunteerTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (*identitydomain.Volunteer, error) {
	var vol identitydomain.Volunteer
	err := tx.WithContext(ctx).Where("email = ?", devVolunteerEmail).First(&vol).Error
	if err == nil {
		return &vol, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	vol = identitydomain.Volunteer{
		ID:    node.Generate(),
		Name:  devVolunteerName,
		Email: devVolunteerEmail,
	}
	if err := tx.WithContext(ctx).Create(&vol).Error; err != nil {
		return nil, err
	}
	return &vol, nil
}

func ensureEventTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID) error {
	var event eventdomain.Event
	err := tx.WithContext(ctx).Where("organization_id = ? AND title = ?", orgID, devEventTitle).First(&event).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	event = eventdomain.Event{
		ID:             node.Generate(),
		OrganizationID: orgID,
		Title:          devEventTitle,
		Description:    "Mutirão de limpeza da praça central, traga luvas.",
		Location:       "Praça Central",
		Date:           time.Now().UTC().Add(7 * 24 * time.Hour).Truncate(time.Hour),
		Duration:       "3 horas",
		Status:         eventdomain.StatusOpen,
	}
	return tx.WithContext(ctx).Create(&event).Error
}
