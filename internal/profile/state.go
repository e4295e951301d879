// Package profile persists the learner's progress: level and XP, acquired
// skills, study time per topic, cached video transcripts, saved summaries,
// and references to previous sessions.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gemtutor-ai/gemtutor/internal/logging"
)

const (
	// xpPerLevelMultiplier: XP required for the next level is level × this.
	xpPerLevelMultiplier = 20

	stateFileName = "user_state.json"

	maxTopicKeyLen = 100
)

// SessionRef is a pointer to a previous tutoring session kept in the profile.
type SessionRef struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"` // "lesson" | "video" | "assessment"
	Topic     string `json:"topic_name"`
	Timestamp string `json:"timestamp"` // RFC3339
}

// SummaryLogEntry records one saved learning summary.
type SummaryLogEntry struct {
	Topic     string `json:"topic"`
	Timestamp string `json:"timestamp"`
	FilePath  string `json:"file_path"`
	FileName  string `json:"file_name"`
	QuizTaken bool   `json:"quiz_taken"`
}

// State is the persistent learner profile.
type State struct {
	Level            int                `json:"level"`
	XP               int                `json:"xp"`
	Skills           []string           `json:"skills"`
	Language         string             `json:"language"`
	LastPDFPath      string             `json:"last_pdf_path"`
	TimePerTopic     map[string]float64 `json:"time_per_topic"` // seconds
	VideoTranscripts map[string]string  `json:"video_transcripts"`
	SummariesLog     []SummaryLogEntry  `json:"summaries_log"`
	Theme            string             `json:"theme"`
	PreviousSessions []SessionRef       `json:"previous_sessions"`

	dir string
	log *zap.Logger
}

// NewState returns a fresh default profile rooted at dir.
func NewState(dir string) *State {
	return &State{
		Level:            1,
		XP:               0,
		Skills:           []string{},
		Language:         "English",
		LastPDFPath:      ".",
		TimePerTopic:     map[string]float64{},
		VideoTranscripts: map[string]string{},
		Theme:            "light",
		dir:              dir,
		log:              logging.L(),
	}
}

// Load reads the profile from dir, returning a fresh default state when the
// file is missing or unreadable.
func Load(dir string) *State {
	s := NewState(dir)
	path := filepath.Join(dir, stateFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("cannot read profile, using defaults", zap.Error(err))
		}
		return s
	}
	if err := json.Unmarshal(data, s); err != nil {
		s.log.Warn("corrupt profile, using defaults", zap.String("path", path), zap.Error(err))
		return NewState(dir)
	}
	s.normalize()
	return s
}

// normalize repairs out-of-range values from hand-edited or legacy files.
func (s *State) normalize() {
	if s.Level < 1 {
		s.Level = 1
	}
	if s.XP < 0 {
		s.XP = 0
	}
	if s.Skills == nil {
		s.Skills = []string{}
	}
	if s.Language == "" {
		s.Language = "English"
	}
	if s.LastPDFPath == "" {
		s.LastPDFPath = "."
	}
	if s.TimePerTopic == nil {
		s.TimePerTopic = map[string]float64{}
	}
	if s.VideoTranscripts == nil {
		s.VideoTranscripts = map[string]string{}
	}
	if s.Theme != "light" && s.Theme != "dark" {
		s.Theme = "light"
	}
}

// Save writes the profile atomically (temp file + rename).
func (s *State) Save() error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	path := filepath.Join(s.dir, stateFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace profile: %w", err)
	}
	s.log.Debug("profile saved", zap.String("path", path))
	return nil
}

// XPForNextLevel returns the XP needed to reach the next level.
func (s *State) XPForNextLevel() int {
	n := s.Level * xpPerLevelMultiplier
	if n < 1 {
		return 1
	}
	return n
}

// GainXP adds XP and applies level-ups, carrying remainder XP forward.
// Non-positive amounts are ignored.
func (s *State) GainXP(amount int) {
	if amount <= 0 {
		return
	}
	s.XP += amount
	s.log.Info("gained xp", zap.Int("amount", amount), zap.Int("xp", s.XP), zap.Int("level", s.Level))
	for needed := s.XPForNextLevel(); s.XP >= needed; needed = s.XPForNextLevel() {
		s.XP -= needed
		s.Level++
		s.log.Info("level up", zap.Int("level", s.Level), zap.Int("xp", s.XP))
	}
}

// AddSkill records a skill, deduplicating case-insensitively. Returns true
// when the skill was new.
func (s *State) AddSkill(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, existing := range s.Skills {
		if strings.EqualFold(existing, name) {
			return false
		}
	}
	s.Skills = append(s.Skills, name)
	s.log.Info("skill added", zap.String("skill", name))
	return true
}

// RecordTime accumulates study time for a topic. Empty or placeholder topics
// and non-positive durations are ignored.
func (s *State) RecordTime(topic string, d time.Duration) {
	if topic == "" || topic == "General" || d <= 0 {
		return
	}
	key := sanitizeTopicKey(topic)
	s.TimePerTopic[key] += d.Seconds()
	s.log.Info("time recorded",
		zap.String("topic", key),
		zap.Float64("seconds", d.Seconds()),
		zap.Float64("total", s.TimePerTopic[key]))
}

// sanitizeTopicKey keeps letters, digits, spaces, underscores and hyphens,
// capped at maxTopicKeyLen characters.
func sanitizeTopicKey(topic string) string {
	var sb strings.Builder
	for _, r := range topic {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == ' ', r == '_', r == '-':
			sb.WriteRune(r)
		}
	}
	key := strings.TrimSpace(sb.String())
	if len(key) > maxTopicKeyLen {
		key = key[:maxTopicKeyLen]
	}
	if key == "" {
		return "Unnamed_Topic"
	}
	return key
}

// SetTheme updates the display theme. Only "light" and "dark" are accepted;
// anything else is ignored.
func (s *State) SetTheme(theme string) {
	if theme != "light" && theme != "dark" {
		return
	}
	s.Theme = theme
}

// StoreTranscript caches a video's transcript summary by video ID.
func (s *State) StoreTranscript(videoID, transcriptSummary string) {
	if videoID == "" {
		return
	}
	s.VideoTranscripts[videoID] = transcriptSummary
	s.log.Info("transcript cached", zap.String("video_id", videoID))
}

// Transcript returns a cached transcript summary, if any.
func (s *State) Transcript(videoID string) (string, bool) {
	t, ok := s.VideoTranscripts[videoID]
	return t, ok
}

// AddOrUpdateSession records a session reference, updating in place when the
// ID already exists. Sessions are kept sorted newest first.
func (s *State) AddOrUpdateSession(ref SessionRef) SessionRef {
	if ref.Timestamp == "" {
		ref.Timestamp = time.Now().Format(time.RFC3339)
	}
	if ref.ID == "" {
		topic := ref.Topic
		if topic == "" {
			topic = "untitled_session"
		}
		ref.ID = fmt.Sprintf("%d_%s", time.Now().Unix(), strings.ReplaceAll(topic, " ", "_"))
	}

	updated := false
	for i := range s.PreviousSessions {
		if s.PreviousSessions[i].ID == ref.ID {
			s.PreviousSessions[i] = ref
			updated = true
			break
		}
	}
	if !updated {
		s.PreviousSessions = append(s.PreviousSessions, ref)
	}

	sort.SliceStable(s.PreviousSessions, func(i, j int) bool {
		return s.PreviousSessions[i].Timestamp > s.PreviousSessions[j].Timestamp
	})
	return ref
}

// SessionByID looks up a previous session reference.
func (s *State) SessionByID(id string) (SessionRef, bool) {
	for _, ref := range s.PreviousSessions {
		if ref.ID == id {
			return ref, true
		}
	}
	return SessionRef{}, false
}
