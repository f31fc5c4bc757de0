// Package translate converts non-English utterances to English before
// classification. It is an optional collaborator with a plain text -> text
// contract; when it is absent the pipeline proceeds with the original text.
package translate

import "context"

type Translator interface {
	Translate(ctx context.Context, text, sourceLanguage string) (string, error)
}
