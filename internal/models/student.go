package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Badge is an award embedded in a student's record. It is never addressed on
// its own and its score is fixed at award time.
type Badge struct {
	Type  string `json:"type"`
	Game  int    `json:"game"`
	Date  string `json:"date"`
	Score int    `json:"score"`
}

// Badges is the award-ordered badge list, persisted as a JSON column.
type Badges []Badge

// HasGame reports whether a badge was already awarded for game.
func (b Badges) HasGame(game int) bool {
	for _, badge := range b {
		if badge.Game == game {
			return true
		}
	}
	return false
}

// MeanScore returns the mean badge score rounded half up, or 0 without badges.
func (b Badges) MeanScore() int {
	if len(b) == 0 {
		return 0
	}
	var sum int64
	for _, badge := range b {
		sum += int64(badge.Score)
	}
	n := int64(len(b))
	return int((2*sum + n) / (2 * n))
}

// MarshalJSON renders an empty list instead of null.
func (b Badges) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Badge(b))
}

// Value implements driver.Valuer. JSON travels as text so lib/pq does not
// encode it as bytea.
func (b Badges) Value() (driver.Value, error) {
	raw, err := b.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (b *Badges) Scan(src interface{}) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("scan badges: %w", err)
	}
	if len(raw) == 0 {
		*b = Badges{}
		return nil
	}
	var out Badges
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan badges: %w", err)
	}
	if out == nil {
		out = Badges{}
	}
	*b = out
	return nil
}

// TimeSpent maps a game number (decimal string) to cumulative milliseconds played.
type TimeSpent map[string]int64

// GameKey is the map key used for a game number.
func GameKey(game int) string {
	return strconv.Itoa(game)
}

// MarshalJSON renders an empty object instead of null.
func (t TimeSpent) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]int64(t))
}

// Value implements driver.Valuer.
func (t TimeSpent) Value() (driver.Value, error) {
	raw, err := t.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (t *TimeSpent) Scan(src interface{}) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("scan time spent: %w", err)
	}
	out := TimeSpent{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("scan time spent: %w", err)
		}
		if out == nil {
			out = TimeSpent{}
		}
	}
	*t = out
	return nil
}

func jsonBytes(src interface{}) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", src)
	}
}

// Student is a learner's durable progress record keyed by StudentID.
type Student struct {
	StudentID    string    `db:"student_id" json:"studentId"`
	Name         string    `db:"name" json:"name"`
	Class        string    `db:"class_name" json:"class"`
	Sessions     int       `db:"sessions" json:"sessions"`
	Badges       Badges    `db:"badges" json:"badges"`
	HighScore    int       `db:"high_score" json:"highScore"`
	OverallScore int       `db:"overall_score" json:"overallScore"`
	TimeSpent    TimeSpent `db:"time_spent" json:"timeSpent"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// NewStudent returns a student with zeroed statistics.
func NewStudent(id, name, class string, now time.Time) *Student {
	return &Student{
		StudentID: id,
		Name:      name,
		Class:     class,
		Badges:    Badges{},
		TimeSpent: TimeSpent{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DefaultName is the display name given to students created on first lookup.
func DefaultName(id string) string {
	return "Student " + id
}

// RecordScore raises HighScore when score beats it.
func (s *Student) RecordScore(score int) {
	if score > s.HighScore {
		s.HighScore = score
	}
}

// AddTimeSpent accumulates play time for game. Negative durations are ignored.
func (s *Student) AddTimeSpent(game int, ms int64) {
	if s.TimeSpent == nil {
		s.TimeSpent = TimeSpent{}
	}
	key := GameKey(game)
	if ms > 0 {
		s.TimeSpent[key] += ms
		return
	}
	if _, ok := s.TimeSpent[key]; !ok {
		s.TimeSpent[key] = 0
	}
}

// AwardBadge appends badge unless one already exists for its game, keeping
// OverallScore in step. It reports whether the badge was added.
func (s *Student) AwardBadge(badge Badge) bool {
	if s.Badges.HasGame(badge.Game) {
		return false
	}
	s.Badges = append(s.Badges, badge)
	s.RecomputeOverallScore()
	return true
}

// RecomputeOverallScore derives OverallScore from the badge list.
func (s *Student) RecomputeOverallScore() {
	s.OverallScore = s.Badges.MeanScore()
}
