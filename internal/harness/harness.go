// Package harness keeps the cross-session development log of a project:
// the game description, its feature list and one record per working
// session. Everything lives as YAML under <project>/.rbxsync/harness.
package harness

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rbxsync/rbxsync-server/internal/project"
	"gopkg.in/yaml.v3"
)

const (
	gameFile     = "game.yaml"
	featuresFile = "features.yaml"
	sessionsDir  = "sessions"

	recentSessions = 5
)

var (
	ErrNotInitialized  = errors.New("harness not initialized")
	ErrUnknownTemplate = errors.New("unknown template")
	ErrNameRequired    = errors.New("name is required for new features")
	ErrFeatureNotFound = errors.New("feature not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrProjectRequired = errors.New("projectDir is required")
)

// Feature statuses.
const (
	StatusPlanned    = "planned"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusBlocked    = "blocked"
	StatusCancelled  = "cancelled"
)

var validStatuses = map[string]bool{
	StatusPlanned:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusBlocked:    true,
	StatusCancelled:  true,
}

var validPriorities = map[string]bool{
	"low":      true,
	"medium":   true,
	"high":     true,
	"critical": true,
}

type Game struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Genre       string    `yaml:"genre,omitempty" json:"genre,omitempty"`
	Template    string    `yaml:"template,omitempty" json:"template,omitempty"`
	CreatedAt   time.Time `yaml:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `yaml:"updatedAt" json:"updatedAt"`
}

type Note struct {
	Text      string    `yaml:"text" json:"text"`
	SessionID string    `yaml:"sessionId,omitempty" json:"sessionId,omitempty"`
	CreatedAt time.Time `yaml:"createdAt" json:"createdAt"`
}

type Feature struct {
	ID                 string    `yaml:"id" json:"id"`
	Name               string    `yaml:"name" json:"name"`
	Description        string    `yaml:"description,omitempty" json:"description,omitempty"`
	Status             string    `yaml:"status" json:"status"`
	Priority           string    `yaml:"priority" json:"priority"`
	Tags               []string  `yaml:"tags,omitempty" json:"tags,omitempty"`
	AcceptanceCriteria []string  `yaml:"acceptanceCriteria,omitempty" json:"acceptanceCriteria,omitempty"`
	AffectedFiles      []string  `yaml:"affectedFiles,omitempty" json:"affectedFiles,omitempty"`
	Dependencies       []string  `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Complexity         int       `yaml:"complexity,omitempty" json:"complexity,omitempty"`
	Notes              []Note    `yaml:"notes,omitempty" json:"notes,omitempty"`
	Sessions           []string  `yaml:"sessions,omitempty" json:"sessions,omitempty"`
	CreatedAt          time.Time `yaml:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time `yaml:"updatedAt" json:"updatedAt"`
}

type featureList struct {
	Features []Feature `yaml:"features"`
}

type Session struct {
	ID             string     `yaml:"id" json:"id"`
	StartedAt      time.Time  `yaml:"startedAt" json:"startedAt"`
	EndedAt        *time.Time `yaml:"endedAt,omitempty" json:"endedAt,omitempty"`
	InitialGoals   string     `yaml:"initialGoals,omitempty" json:"initialGoals,omitempty"`
	Summary        string     `yaml:"summary,omitempty" json:"summary,omitempty"`
	HandoffNotes   []string   `yaml:"handoffNotes,omitempty" json:"handoffNotes,omitempty"`
	FeaturesWorked []string   `yaml:"featuresWorked,omitempty" json:"featuresWorked,omitempty"`
}

// InitRequest initializes (or re-initializes) a project's harness.
type InitRequest struct {
	ProjectDir  string `json:"projectDir" binding:"required"`
	GameName    string `json:"gameName"`
	Description string `json:"description,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Template    string `json:"template,omitempty"`
}

type InitResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	GameID          string `json:"gameId"`
	HarnessDir      string `json:"harnessDir"`
	TemplateApplied string `json:"templateApplied,omitempty"`
	FeaturesAdded   int    `json:"featuresAdded"`
}

type SessionStartRequest struct {
	ProjectDir   string `json:"projectDir" binding:"required"`
	InitialGoals string `json:"initialGoals,omitempty"`
}

type SessionStartResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	SessionID   string `json:"sessionId"`
	SessionPath string `json:"sessionPath"`
}

type SessionEndRequest struct {
	ProjectDir   string   `json:"projectDir" binding:"required"`
	SessionID    string   `json:"sessionId" binding:"required"`
	Summary      string   `json:"summary,omitempty"`
	HandoffNotes []string `json:"handoffNotes,omitempty"`
}

type SessionEndResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Session *Session `json:"session,omitempty"`
}

// FeatureUpdate creates a feature when FeatureID is empty and updates the
// named feature otherwise. Empty fields are left unchanged.
type FeatureUpdate struct {
	ProjectDir         string   `json:"projectDir" binding:"required"`
	FeatureID          string   `json:"featureId,omitempty"`
	Name               string   `json:"name,omitempty"`
	Description        string   `json:"description,omitempty"`
	Status             string   `json:"status,omitempty"`
	Priority           string   `json:"priority,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	AcceptanceCriteria []string `json:"acceptanceCriteria,omitempty"`
	AffectedFiles      []string `json:"affectedFiles,omitempty"`
	Dependencies       []string `json:"dependencies,omitempty"`
	Complexity         int      `json:"complexity,omitempty"`
	AddNote            string   `json:"addNote,omitempty"`
	SessionID          string   `json:"sessionId,omitempty"`
}

type FeatureResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	FeatureID string `json:"featureId"`
}

type StatusRequest struct {
	ProjectDir string `json:"projectDir" binding:"required"`
}

type FeatureSummary struct {
	Total      int `json:"total"`
	Planned    int `json:"planned"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Blocked    int `json:"blocked"`
	Cancelled  int `json:"cancelled"`
}

type SessionSummary struct {
	ID            string     `json:"id"`
	StartedAt     time.Time  `json:"startedAt"`
	EndedAt       *time.Time `json:"endedAt,omitempty"`
	Summary       string     `json:"summary"`
	FeaturesCount int        `json:"featuresCount"`
}

type Status struct {
	Success        bool             `json:"success"`
	Initialized    bool             `json:"initialized"`
	Game           *Game            `json:"game,omitempty"`
	Features       []Feature        `json:"features"`
	FeatureSummary FeatureSummary   `json:"featureSummary"`
	RecentSessions []SessionSummary `json:"recentSessions"`
}

// Store reads and writes harness files. Calls are serialized so concurrent
// updates of one project do not lose writes.
type Store struct {
	mu  sync.Mutex
	now func() time.Time
}

func New() *Store {
	return &Store{now: func() time.Time { return time.Now().UTC() }}
}

// Dir returns the harness directory of a project.
func Dir(projectDir string) string {
	return filepath.Join(projectDir, project.StateDir, "harness")
}

func (s *Store) Init(req InitRequest) (*InitResult, error) {
	if req.ProjectDir == "" {
		return nil, ErrProjectRequired
	}
	var features []Feature
	if req.Template != "" {
		tmpl, ok := templates[strings.ToLower(req.Template)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, req.Template)
		}
		features = tmpl.features
		if req.Genre == "" {
			req.Genre = tmpl.genre
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := Dir(req.ProjectDir)
	if err := os.MkdirAll(filepath.Join(dir, sessionsDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating harness directory: %w", err)
	}

	now := s.now()
	game := Game{
		ID:          uuid.NewString(),
		Name:        req.GameName,
		Description: req.Description,
		Genre:       req.Genre,
		Template:    strings.ToLower(req.Template),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := writeYAML(filepath.Join(dir, gameFile), game); err != nil {
		return nil, err
	}

	list := featureList{Features: make([]Feature, 0, len(features))}
	for _, f := range features {
		f.ID = uuid.NewString()
		f.Status = StatusPlanned
		f.CreatedAt = now
		f.UpdatedAt = now
		list.Features = append(list.Features, f)
	}
	if err := writeYAML(filepath.Join(dir, featuresFile), list); err != nil {
		return nil, err
	}

	return &InitResult{
		Success:         true,
		Message:         "Harness initialized",
		GameID:          game.ID,
		HarnessDir:      dir,
		TemplateApplied: game.Template,
		FeaturesAdded:   len(list.Features),
	}, nil
}

func (s *Store) StartSession(req SessionStartRequest) (*SessionStartResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := Dir(req.ProjectDir)
	if !initialized(dir) {
		return nil, ErrNotInitialized
	}
	if err := os.MkdirAll(filepath.Join(dir, sessionsDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating sessions directory: %w", err)
	}

	sess := Session{
		ID:           uuid.NewString(),
		StartedAt:    s.now(),
		InitialGoals: req.InitialGoals,
	}
	path := sessionPath(dir, sess.ID)
	if err := writeYAML(path, sess); err != nil {
		return nil, err
	}
	return &SessionStartResult{
		Success:     true,
		Message:     "Session started",
		SessionID:   sess.ID,
		SessionPath: path,
	}, nil
}

func (s *Store) EndSession(req SessionEndRequest) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := Dir(req.ProjectDir)
	if !initialized(dir) {
		return nil, ErrNotInitialized
	}
	sess, err := loadSession(dir, req.SessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess.EndedAt = &now
	if req.Summary != "" {
		sess.Summary = req.Summary
	}
	sess.HandoffNotes = append(sess.HandoffNotes, req.HandoffNotes...)
	if err := writeYAML(sessionPath(dir, sess.ID), sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Store) UpdateFeature(req FeatureUpdate) (*FeatureResult, error) {
	if req.Status != "" && !validStatuses[req.Status] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, req.Status)
	}
	if req.Priority != "" && !validPriorities[req.Priority] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPriority, req.Priority)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := Dir(req.ProjectDir)
	if !initialized(dir) {
		return nil, ErrNotInitialized
	}
	list := loadFeatures(dir)
	now := s.now()

	var feature *Feature
	message := "updated"
	if req.FeatureID == "" {
		if strings.TrimSpace(req.Name) == "" {
			return nil, ErrNameRequired
		}
		list.Features = append(list.Features, Feature{
			ID:        uuid.NewString(),
			Name:      req.Name,
			Status:    StatusPlanned,
			Priority:  "medium",
			CreatedAt: now,
		})
		feature = &list.Features[len(list.Features)-1]
		message = "created"
	} else {
		for i := range list.Features {
			if list.Features[i].ID == req.FeatureID {
				feature = &list.Features[i]
				break
			}
		}
		if feature == nil {
			return nil, fmt.Errorf("%w: %s", ErrFeatureNotFound, req.FeatureID)
		}
		if req.Name != "" {
			feature.Name = req.Name
		}
	}

	applyUpdate(feature, req, now)
	if err := writeYAML(filepath.Join(dir, featuresFile), list); err != nil {
		return nil, err
	}

	if req.SessionID != "" {
		if sess, err := loadSession(dir, req.SessionID); err == nil && !contains(sess.FeaturesWorked, feature.ID) {
			sess.FeaturesWorked = append(sess.FeaturesWorked, feature.ID)
			if err := writeYAML(sessionPath(dir, sess.ID), sess); err != nil {
				return nil, err
			}
		}
	}

	return &FeatureResult{Success: true, Message: message, FeatureID: feature.ID}, nil
}

func applyUpdate(f *Feature, req FeatureUpdate, now time.Time) {
	if req.Description != "" {
		f.Description = req.Description
	}
	if req.Status != "" {
		f.Status = req.Status
	}
	if req.Priority != "" {
		f.Priority = req.Priority
	}
	if req.Tags != nil {
		f.Tags = req.Tags
	}
	if req.AcceptanceCriteria != nil {
		f.AcceptanceCriteria = req.AcceptanceCriteria
	}
	for _, file := range req.AffectedFiles {
		if !contains(f.AffectedFiles, file) {
			f.AffectedFiles = append(f.AffectedFiles, file)
		}
	}
	if req.Dependencies != nil {
		f.Dependencies = req.Dependencies
	}
	if req.Complexity > 0 {
		f.Complexity = req.Complexity
	}
	if req.AddNote != "" {
		f.Notes = append(f.Notes, Note{Text: req.AddNote, SessionID: req.SessionID, CreatedAt: now})
	}
	if req.SessionID != "" && !contains(f.Sessions, req.SessionID) {
		f.Sessions = append(f.Sessions, req.SessionID)
	}
	f.UpdatedAt = now
}

// Status summarizes a project's harness. An uninitialized project is not
// an error.
func (s *Store) Status(projectDir string) (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := Dir(projectDir)
	st := &Status{
		Success:        true,
		Features:       []Feature{},
		RecentSessions: []SessionSummary{},
	}
	if !initialized(dir) {
		return st, nil
	}
	st.Initialized = true

	var game Game
	if err := readYAML(filepath.Join(dir, gameFile), &game); err != nil {
		return nil, err
	}
	st.Game = &game

	st.Features = loadFeatures(dir).Features
	for _, f := range st.Features {
		st.FeatureSummary.Total++
		switch f.Status {
		case StatusPlanned:
			st.FeatureSummary.Planned++
		case StatusInProgress:
			st.FeatureSummary.InProgress++
		case StatusCompleted:
			st.FeatureSummary.Completed++
		case StatusBlocked:
			st.FeatureSummary.Blocked++
		case StatusCancelled:
			st.FeatureSummary.Cancelled++
		}
	}

	sessions, err := loadSessions(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].StartedAt.After(sessions[j].StartedAt) })
	if len(sessions) > recentSessions {
		sessions = sessions[:recentSessions]
	}
	for _, sess := range sessions {
		st.RecentSessions = append(st.RecentSessions, SessionSummary{
			ID:            sess.ID,
			StartedAt:     sess.StartedAt,
			EndedAt:       sess.EndedAt,
			Summary:       sess.Summary,
			FeaturesCount: len(sess.FeaturesWorked),
		})
	}
	return st, nil
}

func initialized(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, gameFile))
	return err == nil
}

// loadFeatures returns an empty list when features.yaml is missing or
// unreadable; the next write replaces it.
func loadFeatures(dir string) featureList {
	var list featureList
	if err := readYAML(filepath.Join(dir, featuresFile), &list); err != nil {
		return featureList{}
	}
	return list
}

func loadSession(dir, id string) (*Session, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	var sess Session
	if err := readYAML(sessionPath(dir, id), &sess); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, err
	}
	return &sess, nil
}

func loadSessions(dir string) ([]Session, error) {
	entries, err := os.ReadDir(filepath.Join(dir, sessionsDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading sessions: %w", err)
	}
	var sessions []Session
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		var sess Session
		if err := readYAML(filepath.Join(dir, sessionsDir, e.Name()), &sess); err != nil {
			continue
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

func sessionPath(dir, id string) string {
	return filepath.Join(dir, sessionsDir, id+".yaml")
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
