package classify

import (
	"context"
	"strings"
)

// Substring is the development stand-in backend: a text matches a topic when
// the topic appears in the text, case-insensitively. It honors the same
// input contract as the real backends so it can be swapped in without
// touching callers.
type Substring struct{}

// Classify implements Classifier.
func (Substring) Classify(_ context.Context, texts []TextItem, topics []TopicItem) ([]Match, error) {
	if err := validateBatch(texts, topics); err != nil {
		return nil, err
	}
	matches := make([]Match, len(texts))
	for i, text := range texts {
		lowered := strings.ToLower(text.Text)
		ids := []string{}
		for _, topic := range topics {
			if strings.Contains(lowered, strings.ToLower(strings.TrimSpace(topic.Topic))) {
				ids = append(ids, topic.ID)
			}
		}
		matches[i] = Match{TextID: text.ID, TopicIDs: ids}
	}
	return matches, nil
}
