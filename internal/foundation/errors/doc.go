// Package errors provides the classified error primitives used across blogbuilder.
//
// Every failure that can abort a build carries a category (config, content,
// template, gist, git, ...), a severity and a retry hint. The CLI adapter maps
// categories to process exit codes so that `blogbuilder build` fails loudly and
// predictably when any stage fails.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryGist, "fetch gist").
//		WithContext("gist_id", id).
//		Retryable().
//		Build()
package errors
