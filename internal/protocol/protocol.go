// Package protocol defines the renderer's sole output vocabulary: a closed
// tagged union of messages emitted one JSON object per line on the content
// program's stdout.
package protocol

import (
	"encoding/json"
	"fmt"

	pberrors "git.home.luguber.info/inful/pagebuild/internal/errors"
)

// Message is one unit of the renderer's tagged output vocabulary. The set of
// implementations is closed: Log, InitialData, PageProgress and Errors.
// Dispatch is exhaustive; an unknown tag never constructs a Message.
type Message interface {
	isMessage()
}

// Log carries an operator-visible message. No file I/O results from it.
type Log struct {
	Value string `json:"value"`
}

// InitialData is emitted exactly once, before any PageProgress. It carries
// the site manifest (opaque pass-through) and extra files the renderer wants
// generated verbatim.
type InitialData struct {
	Manifest        json.RawMessage  `json:"manifest"`
	FilesToGenerate []FileToGenerate `json:"filesToGenerate"`
}

// FileToGenerate declares one raw output file.
type FileToGenerate struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// PageProgress carries one rendered page, produced once per page.
type PageProgress struct {
	Page RenderedPage `json:"page"`
}

// Errors reports a page-level failure. It flips the build outcome to failure
// but does not halt the message stream.
type Errors struct {
	Details string `json:"details"`
}

func (Log) isMessage()          {}
func (InitialData) isMessage()  {}
func (PageProgress) isMessage() {}
func (Errors) isMessage()       {}

// RenderedPage is the renderer's description of one output page. Immutable
// after creation; consumed exactly once by the output materializer.
type RenderedPage struct {
	Route       string          `json:"route"`
	HTML        string          `json:"html"`
	Head        HeadTags        `json:"head"`
	ContentJSON json.RawMessage `json:"contentJson"`
	Title       string          `json:"title"`
}

// Decode parses one protocol line. An unknown tag or malformed line is a
// protocol violation, which callers treat as fatal.
func Decode(line []byte) (Message, error) {
	var envelope struct {
		Tag string `json:"tag"`
	}
	if err := json.Unmarshal(line, &envelope); err != nil {
		return nil, pberrors.ProtocolViolation(fmt.Sprintf("malformed message line: %v", err))
	}

	switch envelope.Tag {
	case "Log":
		var m Log
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, pberrors.ProtocolViolation(fmt.Sprintf("bad Log payload: %v", err))
		}
		return m, nil
	case "InitialData":
		var m InitialData
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, pberrors.ProtocolViolation(fmt.Sprintf("bad InitialData payload: %v", err))
		}
		return m, nil
	case "PageProgress":
		var m PageProgress
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, pberrors.ProtocolViolation(fmt.Sprintf("bad PageProgress payload: %v", err))
		}
		return m, nil
	case "Errors":
		var m Errors
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, pberrors.ProtocolViolation(fmt.Sprintf("bad Errors payload: %v", err))
		}
		return m, nil
	default:
		return nil, pberrors.ProtocolViolation(fmt.Sprintf("unknown message tag %q", envelope.Tag))
	}
}
