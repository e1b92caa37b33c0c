// Package summarizer produces detailed summaries of files and methods with a
// chat model. The indexer uses it when configured; a failed call leaves the
// basic pattern-derived summary in place.
package summarizer
