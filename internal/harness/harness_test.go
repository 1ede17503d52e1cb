package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initProject(t *testing.T, s *Store, template string) string {
	t.Helper()
	dir := t.TempDir()
	_, err := s.Init(InitRequest{ProjectDir: dir, GameName: "Test Game", Template: template})
	require.NoError(t, err)
	return dir
}

func TestInit_CreatesLayout(t *testing.T) {
	s := New()
	dir := t.TempDir()

	res, err := s.Init(InitRequest{ProjectDir: dir, GameName: "Test Game", Description: "A test game", Genre: "RPG"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.GameID)
	assert.Equal(t, 0, res.FeaturesAdded)

	harnessDir := Dir(dir)
	assert.FileExists(t, filepath.Join(harnessDir, "game.yaml"))
	assert.FileExists(t, filepath.Join(harnessDir, "features.yaml"))
	assert.DirExists(t, filepath.Join(harnessDir, "sessions"))
}

func TestInit_Templates(t *testing.T) {
	for _, name := range []string{"tycoon", "obby", "simulator", "rpg", "horror"} {
		t.Run(name, func(t *testing.T) {
			s := New()
			res, err := s.Init(InitRequest{ProjectDir: t.TempDir(), GameName: "Game", Template: name})
			require.NoError(t, err)
			assert.Equal(t, name, res.TemplateApplied)
			assert.Greater(t, res.FeaturesAdded, 0)
		})
	}

	_, err := New().Init(InitRequest{ProjectDir: t.TempDir(), Template: "nonexistent_template"})
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestInit_ResetsFeatures(t *testing.T) {
	s := New()
	dir := initProject(t, s, "")

	_, err := s.UpdateFeature(FeatureUpdate{ProjectDir: dir, Name: "Existing Feature"})
	require.NoError(t, err)

	_, err = s.Init(InitRequest{ProjectDir: dir, GameName: "New Game Name"})
	require.NoError(t, err)

	st, err := s.Status(dir)
	require.NoError(t, err)
	assert.Equal(t, "New Game Name", st.Game.Name)
	assert.Empty(t, st.Features)
}

func TestSession_RequiresInit(t *testing.T) {
	_, err := New().StartSession(SessionStartRequest{ProjectDir: t.TempDir()})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestSession_StartAndEnd(t *testing.T) {
	s := New()
	dir := initProject(t, s, "")

	started, err := s.StartSession(SessionStartRequest{ProjectDir: dir, InitialGoals: "Implement combat system"})
	require.NoError(t, err)
	assert.FileExists(t, started.SessionPath)

	ended, err := s.EndSession(SessionEndRequest{
		ProjectDir:   dir,
		SessionID:    started.SessionID,
		Summary:      "Combat system implemented",
		HandoffNotes: []string{"Need to add special attacks"},
	})
	require.NoError(t, err)
	require.NotNil(t, ended.EndedAt)
	assert.Equal(t, "Implement combat system", ended.InitialGoals)
	assert.Equal(t, []string{"Need to add special attacks"}, ended.HandoffNotes)

	_, err = s.EndSession(SessionEndRequest{ProjectDir: dir, SessionID: "nonexistent-session-id"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = s.EndSession(SessionEndRequest{ProjectDir: dir, SessionID: "../game"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUpdateFeature(t *testing.T) {
	s := New()
	dir := initProject(t, s, "")

	_, err := s.UpdateFeature(FeatureUpdate{ProjectDir: dir, Description: "no name"})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = s.UpdateFeature(FeatureUpdate{ProjectDir: dir, FeatureID: "nonexistent-feature-id", Status: StatusCompleted})
	assert.ErrorIs(t, err, ErrFeatureNotFound)

	_, err = s.UpdateFeature(FeatureUpdate{ProjectDir: dir, Name: "X", Status: "done"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = s.UpdateFeature(FeatureUpdate{ProjectDir: dir, Name: "X", Priority: "urgent"})
	assert.ErrorIs(t, err, ErrInvalidPriority)

	sess, err := s.StartSession(SessionStartRequest{ProjectDir: dir})
	require.NoError(t, err)

	created, err := s.UpdateFeature(FeatureUpdate{ProjectDir: dir, Name: "Inventory System", Tags: []string{"gameplay"}})
	require.NoError(t, err)
	assert.Equal(t, "created", created.Message)

	updated, err := s.UpdateFeature(FeatureUpdate{
		ProjectDir:    dir,
		FeatureID:     created.FeatureID,
		Status:        StatusInProgress,
		AddNote:       "Started implementation using ReplicatedStorage",
		AffectedFiles: []string{"src/ServerScriptService/Inventory"},
		SessionID:     sess.SessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, created.FeatureID, updated.FeatureID)

	st, err := s.Status(dir)
	require.NoError(t, err)
	require.Len(t, st.Features, 1)
	f := st.Features[0]
	assert.Equal(t, StatusInProgress, f.Status)
	assert.Equal(t, "medium", f.Priority)
	assert.Equal(t, []string{"gameplay"}, f.Tags)
	require.Len(t, f.Notes, 1)
	assert.Equal(t, sess.SessionID, f.Notes[0].SessionID)

	require.Len(t, st.RecentSessions, 1)
	assert.Equal(t, 1, st.RecentSessions[0].FeaturesCount)
}

func TestStatus_Summary(t *testing.T) {
	s := New()

	st, err := s.Status(t.TempDir())
	require.NoError(t, err)
	assert.True(t, st.Success)
	assert.False(t, st.Initialized)

	dir := initProject(t, s, "")
	for name, status := range map[string]string{
		"Feature 1": StatusPlanned,
		"Feature 2": StatusInProgress,
		"Feature 3": StatusCompleted,
		"Feature 4": StatusBlocked,
		"Feature 5": StatusPlanned,
	} {
		_, err := s.UpdateFeature(FeatureUpdate{ProjectDir: dir, Name: name, Status: status})
		require.NoError(t, err)
	}

	st, err = s.Status(dir)
	require.NoError(t, err)
	assert.Equal(t, FeatureSummary{Total: 5, Planned: 2, InProgress: 1, Completed: 1, Blocked: 1}, st.FeatureSummary)
}

func TestCorruptFeaturesStartFresh(t *testing.T) {
	s := New()
	dir := initProject(t, s, "obby")

	path := filepath.Join(Dir(dir), "features.yaml")
	require.NoError(t, os.WriteFile(path, []byte("this is not: valid: yaml: [[[["), 0o644))

	_, err := s.UpdateFeature(FeatureUpdate{ProjectDir: dir, Name: "New Feature"})
	require.NoError(t, err)

	st, err := s.Status(dir)
	require.NoError(t, err)
	require.Len(t, st.Features, 1)
	assert.Equal(t, "New Feature", st.Features[0].Name)
}

func TestMissingSessionsDirectory(t *testing.T) {
	s := New()
	dir := initProject(t, s, "")
	require.NoError(t, os.RemoveAll(filepath.Join(Dir(dir), "sessions")))

	st, err := s.Status(dir)
	require.NoError(t, err)
	assert.True(t, st.Initialized)
	assert.Empty(t, st.RecentSessions)

	_, err = s.StartSession(SessionStartRequest{ProjectDir: dir})
	assert.NoError(t, err)
}

func TestUnicodeNames(t *testing.T) {
	s := New()
	dir := t.TempDir()
	_, err := s.Init(InitRequest{ProjectDir: dir, GameName: "ゲーム名 - Game 🎮"})
	require.NoError(t, err)

	st, err := s.Status(dir)
	require.NoError(t, err)
	assert.Equal(t, "ゲーム名 - Game 🎮", st.Game.Name)
}
