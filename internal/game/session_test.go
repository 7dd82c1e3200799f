package game

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLevel(n int) *Level {
	l := &Level{
		Theme:              "Kitchen",
		BasePrompt:         "a busy kitchen",
		ModificationPrompt: "change things",
	}
	for i := 1; i <= n; i++ {
		l.Differences = append(l.Differences, Difference{
			ID:          strconv.Itoa(i),
			Description: "change " + strconv.Itoa(i),
			X:           float64(i * 12),
			Y:           float64(i * 10),
		})
	}
	return l
}

func testImage() *Image {
	return &Image{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png", Width: 1, Height: 1}
}

func mustApply(t *testing.T, s Session, ev Event) Session {
	t.Helper()
	next, err := Apply(s, ev)
	require.NoError(t, err)
	return next
}

// playing walks a fresh session through the happy path.
func playing(t *testing.T, d Difficulty) Session {
	t.Helper()
	s := mustApply(t, NewSession(), SetDifficulty{Difficulty: d})
	s = mustApply(t, s, Start{Theme: "Kitchen", AttemptID: "a1"})
	s = mustApply(t, s, MetadataReady{Level: testLevel(ConfigFor(d).Count)})
	s = mustApply(t, s, BaseImageReady{Image: testImage()})
	s = mustApply(t, s, ModifiedImageReady{Image: testImage()})
	return s
}

func TestApply_HappyPath(t *testing.T) {
	s := NewSession()
	assert.Equal(t, StatusIdle, s.Status)
	assert.Equal(t, Medium, s.Difficulty)

	s = mustApply(t, s, Start{Theme: " Kitchen ", AttemptID: "a1"})
	assert.Equal(t, StatusGeneratingMetadata, s.Status)
	assert.Equal(t, "Kitchen", s.Theme)
	assert.Nil(t, s.Level)

	s = mustApply(t, s, MetadataReady{Level: testLevel(5)})
	assert.Equal(t, StatusGeneratingBaseImage, s.Status)
	require.NotNil(t, s.Level)
	assert.Len(t, s.Level.Differences, 5)

	s = mustApply(t, s, BaseImageReady{Image: testImage()})
	assert.Equal(t, StatusGeneratingModifiedImage, s.Status)
	assert.NotNil(t, s.BaseImage)

	s = mustApply(t, s, ModifiedImageReady{Image: testImage()})
	assert.Equal(t, StatusPlaying, s.Status)
	assert.Equal(t, 0, s.FoundCount)
	assert.Equal(t, 0, s.ElapsedSeconds)
	assert.NotNil(t, s.ModifiedImage)
}

func TestApply_MetadataResetsFoundFlags(t *testing.T) {
	level := testLevel(5)
	level.Differences[2].Found = true

	s := mustApply(t, NewSession(), Start{Theme: "Kitchen"})
	s = mustApply(t, s, MetadataReady{Level: level})

	for _, d := range s.Level.Differences {
		assert.False(t, d.Found, "difference %s should start undiscovered", d.ID)
	}
	assert.True(t, level.Differences[2].Found, "provider level must not be modified")
}

func TestApply_CountMatchesDifficulty(t *testing.T) {
	for _, cfg := range Difficulties() {
		t.Run(cfg.Difficulty.String(), func(t *testing.T) {
			s := playing(t, cfg.Difficulty)
			assert.Equal(t, cfg.Count, s.TotalDifferences())
		})
	}
}

func TestApply_WrongCountFails(t *testing.T) {
	s := mustApply(t, NewSession(), Start{Theme: "Kitchen"})
	s = mustApply(t, s, MetadataReady{Level: testLevel(4)})

	assert.Equal(t, StatusFailed, s.Status)
	assert.Nil(t, s.Level)
	assert.NotEmpty(t, s.LastError)
}

func TestApply_DifferenceFound(t *testing.T) {
	s := playing(t, Medium)

	s = mustApply(t, s, DifferenceFound{ID: "3"})
	assert.Equal(t, 1, s.FoundCount)
	d, ok := s.Level.Difference("3")
	require.True(t, ok)
	assert.True(t, d.Found)
	assert.Equal(t, StatusPlaying, s.Status)

	t.Run("idempotent", func(t *testing.T) {
		again := mustApply(t, s, DifferenceFound{ID: "3"})
		assert.Equal(t, 1, again.FoundCount)
		assert.Equal(t, StatusPlaying, again.Status)
	})

	t.Run("unknown id ignored", func(t *testing.T) {
		again := mustApply(t, s, DifferenceFound{ID: "nope"})
		assert.Equal(t, s, again)
	})

	t.Run("completes on last", func(t *testing.T) {
		cur := s
		for _, id := range []string{"5", "1", "4", "2"} {
			assert.Equal(t, StatusPlaying, cur.Status)
			cur = mustApply(t, cur, DifferenceFound{ID: id})
			assert.Equal(t, cur.Level.FoundCount(), cur.FoundCount)
		}
		assert.Equal(t, StatusCompleted, cur.Status)
		assert.Equal(t, 5, cur.FoundCount)

		_, err := Apply(cur, DifferenceFound{ID: "1"})
		assert.ErrorIs(t, err, ErrNotPlaying)
	})
}

func TestApply_SnapshotsAreIndependent(t *testing.T) {
	before := playing(t, Easy)
	after := mustApply(t, before, DifferenceFound{ID: "1"})

	d, _ := before.Level.Difference("1")
	assert.False(t, d.Found, "earlier snapshot must not observe later transitions")
	assert.Equal(t, 0, before.FoundCount)
	assert.Equal(t, 1, after.FoundCount)
}

func TestApply_StartRules(t *testing.T) {
	_, err := Apply(NewSession(), Start{Theme: "   "})
	assert.ErrorIs(t, err, ErrEmptyTheme)

	s := playing(t, Easy)
	_, err = Apply(s, Start{Theme: "Forest"})
	assert.ErrorIs(t, err, ErrSessionActive)

	gen := mustApply(t, NewSession(), Start{Theme: "Kitchen", AttemptID: "old"})
	gen = mustApply(t, gen, MetadataReady{Level: testLevel(5)})
	next := mustApply(t, gen, Start{Theme: "Forest", AttemptID: "new"})
	assert.Equal(t, StatusGeneratingMetadata, next.Status)
	assert.Equal(t, "new", next.AttemptID)
	assert.Nil(t, next.Level)
}

func TestApply_StartClearsPreviousGame(t *testing.T) {
	s := playing(t, Easy)
	for i := 0; i < 4; i++ {
		s = mustApply(t, s, Tick{})
	}
	for _, id := range []string{"1", "2", "3"} {
		s = mustApply(t, s, DifferenceFound{ID: id})
	}
	require.Equal(t, StatusCompleted, s.Status)

	s = mustApply(t, s, Start{Theme: "Ocean"})
	assert.Equal(t, StatusGeneratingMetadata, s.Status)
	assert.Equal(t, 0, s.FoundCount)
	assert.Equal(t, 0, s.ElapsedSeconds)
	assert.Nil(t, s.Level)
	assert.Nil(t, s.BaseImage)
	assert.Nil(t, s.ModifiedImage)
	assert.Equal(t, Easy, s.Difficulty)
}

func TestApply_GenerationFailed(t *testing.T) {
	s := mustApply(t, NewSession(), Start{Theme: "Kitchen"})
	s = mustApply(t, s, MetadataReady{Level: testLevel(5)})
	s = mustApply(t, s, BaseImageReady{Image: testImage()})
	s = mustApply(t, s, GenerationFailed{Message: "quota exceeded"})

	assert.Equal(t, StatusFailed, s.Status)
	assert.Equal(t, "quota exceeded", s.LastError)
	assert.Nil(t, s.Level, "partial level must be discarded")
	assert.Nil(t, s.BaseImage, "partial image must be discarded")

	t.Run("empty message falls back", func(t *testing.T) {
		s := mustApply(t, NewSession(), Start{Theme: "Kitchen"})
		s = mustApply(t, s, GenerationFailed{})
		assert.Equal(t, DefaultFailureMessage, s.LastError)
	})

	t.Run("only while generating", func(t *testing.T) {
		_, err := Apply(NewSession(), GenerationFailed{Message: "late"})
		assert.ErrorIs(t, err, ErrUnexpectedEvent)
	})
}

func TestApply_PipelineEventsOutOfOrder(t *testing.T) {
	s := mustApply(t, NewSession(), Start{Theme: "Kitchen"})

	_, err := Apply(s, BaseImageReady{Image: testImage()})
	assert.ErrorIs(t, err, ErrUnexpectedEvent)
	_, err = Apply(s, ModifiedImageReady{Image: testImage()})
	assert.ErrorIs(t, err, ErrUnexpectedEvent)
	_, err = Apply(NewSession(), MetadataReady{Level: testLevel(5)})
	assert.ErrorIs(t, err, ErrUnexpectedEvent)
}

func TestApply_EmptyImageFails(t *testing.T) {
	s := mustApply(t, NewSession(), Start{Theme: "Kitchen"})
	s = mustApply(t, s, MetadataReady{Level: testLevel(5)})
	s = mustApply(t, s, BaseImageReady{Image: &Image{MIMEType: "image/png"}})

	assert.Equal(t, StatusFailed, s.Status)
	assert.Equal(t, DefaultFailureMessage, s.LastError)
}

func TestApply_Reset(t *testing.T) {
	fromIdle := mustApply(t, NewSession(), Reset{})

	s := playing(t, Medium)
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		s = mustApply(t, s, DifferenceFound{ID: id})
	}
	require.Equal(t, StatusCompleted, s.Status)
	fromCompleted := mustApply(t, s, Reset{})

	assert.Equal(t, fromIdle, fromCompleted)
	assert.Equal(t, NewSession(), fromIdle)

	hard := mustApply(t, NewSession(), SetDifficulty{Difficulty: Hard})
	assert.Equal(t, Hard, mustApply(t, hard, Reset{}).Difficulty, "reset keeps the selected difficulty")
}

func TestApply_SetDifficulty(t *testing.T) {
	s := mustApply(t, NewSession(), SetDifficulty{Difficulty: Hard})
	assert.Equal(t, Hard, s.Difficulty)

	_, err := Apply(s, SetDifficulty{Difficulty: Difficulty(9)})
	assert.ErrorIs(t, err, ErrUnknownDifficulty)

	gen := mustApply(t, s, Start{Theme: "Kitchen"})
	_, err = Apply(gen, SetDifficulty{Difficulty: Easy})
	assert.ErrorIs(t, err, ErrGenerationInProgress)

	_, err = Apply(playing(t, Easy), SetDifficulty{Difficulty: Hard})
	assert.ErrorIs(t, err, ErrSessionActive)

	failed := mustApply(t, gen, GenerationFailed{Message: "boom"})
	failed = mustApply(t, failed, SetDifficulty{Difficulty: Easy})
	assert.Equal(t, Easy, failed.Difficulty)
	assert.Equal(t, StatusFailed, failed.Status)
}

func TestApply_TickOnlyWhilePlaying(t *testing.T) {
	s := playing(t, Easy)
	s = mustApply(t, s, Tick{})
	s = mustApply(t, s, Tick{})
	assert.Equal(t, 2, s.ElapsedSeconds)

	for _, id := range []string{"1", "2", "3"} {
		s = mustApply(t, s, DifferenceFound{ID: id})
	}
	require.Equal(t, StatusCompleted, s.Status)
	s = mustApply(t, s, Tick{})
	assert.Equal(t, 2, s.ElapsedSeconds, "completed sessions do not tick")

	gen := mustApply(t, NewSession(), Start{Theme: "Kitchen"})
	assert.Equal(t, 0, mustApply(t, gen, Tick{}).ElapsedSeconds)
}
