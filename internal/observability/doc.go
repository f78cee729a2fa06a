// Package observability records what obsforge itself did: the JSONL event
// log of registrations, Prometheus counters for the current process, run
// summaries derived from the event log, and synthesis health alerts that can
// be posted to Slack.
package observability
