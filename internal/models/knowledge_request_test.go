package models

import (
	"testing"

	"github.com/stretchr/testify/require"

	appErrors "github.com/prakoso-dev/kb-api/pkg/errors"
)

func TestResolutionValidate(t *testing.T) {
	answer := "See section 4 of the handbook."
	docID := "doc-1"

	valid := []Resolution{
		LinkedDocumentResolution(docID),
		NewDocumentResolution(docID),
		WrittenAnswerResolution(answer),
	}
	for _, r := range valid {
		require.NoError(t, r.Validate(), string(r.Kind))
	}

	invalid := []Resolution{
		{Kind: ResolutionLinkedDocument},
		{Kind: ResolutionNewDocument, DocumentID: ptr("  ")},
		{Kind: ResolutionLinkedDocument, DocumentID: &docID, Answer: &answer},
		{Kind: ResolutionWrittenAnswer},
		{Kind: ResolutionWrittenAnswer, Answer: ptr("   ")},
		{Kind: ResolutionWrittenAnswer, Answer: &answer, DocumentID: &docID},
		{Kind: "ESCALATED", Answer: &answer},
	}
	for _, r := range invalid {
		err := r.Validate()
		require.Error(t, err)
		require.Equal(t, appErrors.ErrInvalidPayload.Code, appErrors.FromError(err).Code)
	}
}

func ptr(s string) *string { return &s }
