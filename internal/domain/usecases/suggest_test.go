package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/icdrag-go/internal/domain/entities"
)

const validAnswer = `{"primary_code":"A00","confidence":0.8,"reason":"cholera","alternatives":[{"code":"A00.0","why":"vibrio"}]}`

func newSuggest(t *testing.T, llm *mockLLM, opts ...SuggestOption) (*SuggestUseCase, *vocabEmbedder) {
	t.Helper()
	corpus := testCorpus()
	embedder := newVocabEmbedder()
	vectors := make([][]float32, len(corpus))
	for i, e := range corpus {
		v, err := normalizeVector(embedder.vector(e.Text))
		require.NoError(t, err)
		vectors[i] = v
	}
	uc, err := NewSuggestUseCase(embedder, &mockIndex{vectors: vectors}, corpus, llm, opts...)
	require.NoError(t, err)
	return uc, embedder
}

func TestSuggestUseCase_RetrieveRanksRelatedEntriesFirst(t *testing.T) {
	uc, _ := newSuggest(t, &mockLLM{})

	got, err := uc.Retrieve(context.Background(), "Patient presents with acute cholera and dehydration", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	top := []string{got[0].Code, got[1].Code}
	assert.ElementsMatch(t, []string{"A00", "A00.0"}, top)
	assert.Greater(t, got[1].Score, got[2].Score)
}

func TestSuggestUseCase_RetrieveIsDeterministic(t *testing.T) {
	uc, _ := newSuggest(t, &mockLLM{})
	note := "typhoid fever suspected"

	first, err := uc.Retrieve(context.Background(), note, 4)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := uc.Retrieve(context.Background(), note, 4)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSuggestUseCase_ScoresWithinBounds(t *testing.T) {
	uc, _ := newSuggest(t, &mockLLM{})

	got, err := uc.Retrieve(context.Background(), "fracture of the femur", 5)
	require.NoError(t, err)
	for _, c := range got {
		assert.GreaterOrEqual(t, c.Score, -1.0)
		assert.LessOrEqual(t, c.Score, 1.0)
	}
}

func TestSuggestUseCase_TopKClampedToCorpus(t *testing.T) {
	uc, _ := newSuggest(t, &mockLLM{})

	got, err := uc.Retrieve(context.Background(), "cholera", 500)
	require.NoError(t, err)
	assert.Len(t, got, uc.CorpusSize())
}

func TestSuggestUseCase_RejectsBadRequestsBeforeEmbedding(t *testing.T) {
	uc, embedder := newSuggest(t, &mockLLM{})

	_, err := uc.Retrieve(context.Background(), "   ", 5)
	assert.ErrorIs(t, err, ErrEmptyNote)

	_, err = uc.Retrieve(context.Background(), "cholera", -1)
	assert.ErrorIs(t, err, ErrInvalidTopK)
	assert.True(t, IsClientError(err))

	assert.Zero(t, embedder.calls)
}

func TestSuggestUseCase_Suggest(t *testing.T) {
	llm := &mockLLM{response: "  " + validAnswer + "\n"}
	uc, _ := newSuggest(t, llm)

	res, err := uc.Suggest(context.Background(), entities.SuggestRequest{Note: "cholera outbreak", TopK: 2})
	require.NoError(t, err)

	assert.Len(t, res.Candidates, 2)
	assert.Equal(t, validAnswer, res.ModelAnswer)
	assert.Equal(t, entities.Disclaimer, res.Disclaimer)
	require.NotNil(t, res.Answer)
	assert.Equal(t, "A00", res.Answer.PrimaryCode)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "cholera outbreak")
	assert.Contains(t, llm.prompts[0], "1) ")
}

func TestSuggestUseCase_DefaultTopK(t *testing.T) {
	uc, _ := newSuggest(t, &mockLLM{response: validAnswer})

	res, err := uc.Suggest(context.Background(), entities.SuggestRequest{Note: "cholera"})
	require.NoError(t, err)
	// corpus has fewer than DefaultTopK entries
	assert.Len(t, res.Candidates, uc.CorpusSize())
}

func TestSuggestUseCase_ConfiguredDefaultTopK(t *testing.T) {
	uc, _ := newSuggest(t, &mockLLM{response: validAnswer}, WithDefaultTopK(2))

	res, err := uc.Suggest(context.Background(), entities.SuggestRequest{Note: "cholera"})
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 2)
}

func TestSuggestUseCase_StrictRejectsInvalidAnswer(t *testing.T) {
	uc, _ := newSuggest(t, &mockLLM{response: `{"primary_code":"Z99","confidence":0.9,"reason":"x","alternatives":[]}`})

	res, err := uc.Suggest(context.Background(), entities.SuggestRequest{Note: "cholera", TopK: 2})

	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrInvalidModelAnswer)
	var answerErr *AnswerError
	require.ErrorAs(t, err, &answerErr)
	assert.Contains(t, answerErr.Reason, "Z99")
}

func TestSuggestUseCase_LenientPassesRawAnswerThrough(t *testing.T) {
	uc, _ := newSuggest(t, &mockLLM{response: "I think it is cholera."}, WithStrictAnswers(false))

	res, err := uc.Suggest(context.Background(), entities.SuggestRequest{Note: "cholera", TopK: 2})
	require.NoError(t, err)

	assert.Equal(t, "I think it is cholera.", res.ModelAnswer)
	assert.Nil(t, res.Answer)
}

func TestSuggestUseCase_GenerationFailureFailsWholeRequest(t *testing.T) {
	uc, _ := newSuggest(t, &mockLLM{err: errBoom})

	res, err := uc.Suggest(context.Background(), entities.SuggestRequest{Note: "cholera", TopK: 2})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, errBoom)
}

func TestNewSuggestUseCase_RejectsMisalignedIndex(t *testing.T) {
	corpus := testCorpus()
	_, err := NewSuggestUseCase(newVocabEmbedder(), &mockIndex{vectors: [][]float32{{1, 0}}}, corpus, &mockLLM{})
	assert.Error(t, err)

	_, err = NewSuggestUseCase(newVocabEmbedder(), &mockIndex{}, nil, &mockLLM{})
	assert.ErrorIs(t, err, ErrNoEntries)
}
