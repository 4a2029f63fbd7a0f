package finder

import "errors"

// ErrCrawlAborted signals the oracle's considered judgement that no viable
// report exists on the current path. A normal termination, not a failure.
var ErrCrawlAborted = errors.New("oracle decided to abort crawling")

// ErrStartPageUnreachable is returned when the very first page of a session
// fails to render twice in a row. Recoverable at the orchestrator level: the
// next candidate starting URL is tried.
var ErrStartPageUnreachable = errors.New("start page unreachable")
