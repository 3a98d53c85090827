package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/playtrack-api/internal/models"
	"github.com/noah-isme/playtrack-api/pkg/config"
)

const (
	defaultBadgeThreshold = 20
	defaultBadgeLabel     = "Master of %s"
	badgeDateLayout       = "2006-01-02"
)

// BadgePolicy decides when a session earns a badge. A badge requires a score
// strictly above the threshold and is awarded at most once per game.
type BadgePolicy struct {
	threshold   int
	labelFormat string
	location    *time.Location
	now         func() time.Time
}

// NewBadgePolicy builds the policy from configuration.
func NewBadgePolicy(cfg config.BadgeConfig) (*BadgePolicy, error) {
	loc := time.Local
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" && tz != "Local" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("load badge timezone %q: %w", tz, err)
		}
		loc = l
	}
	format := cfg.LabelFormat
	if strings.TrimSpace(format) == "" {
		format = defaultBadgeLabel
	}
	return &BadgePolicy{threshold: cfg.ScoreThreshold, labelFormat: format, location: loc, now: time.Now}, nil
}

// DefaultBadgePolicy returns the policy with stock settings.
func DefaultBadgePolicy() *BadgePolicy {
	return &BadgePolicy{threshold: defaultBadgeThreshold, labelFormat: defaultBadgeLabel, location: time.Local, now: time.Now}
}

// WithClock overrides the clock used to date badges.
func (p *BadgePolicy) WithClock(now func() time.Time) *BadgePolicy {
	p.now = now
	return p
}

// Threshold returns the score a session must exceed.
func (p *BadgePolicy) Threshold() int {
	return p.threshold
}

// Label names the award for game.
func (p *BadgePolicy) Label(game int) string {
	title, ok := models.GameTitle(game)
	if !ok {
		title = fmt.Sprintf("Game %d", game)
	}
	if !strings.Contains(p.labelFormat, "%s") {
		return p.labelFormat
	}
	return fmt.Sprintf(p.labelFormat, title)
}

// Evaluate returns the badge earned by scoring score on game, or nil.
func (p *BadgePolicy) Evaluate(student *models.Student, game, score int) *models.Badge {
	if score <= p.threshold || student.Badges.HasGame(game) {
		return nil
	}
	return &models.Badge{
		Type:  p.Label(game),
		Game:  game,
		Date:  p.now().In(p.location).Format(badgeDateLayout),
		Score: score,
	}
}
