// Copyright 2024 The go-ember Authors
// This file is part of the go-ember library.
//
// The go-ember library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ember library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ember library. If not, see <http://www.gnu.org/licenses/>.

// Package notify carries the node-level user notification events: init
// progress, interactive message boxes and alerts. Subsystem-specific events
// (chain tips, connection counts, wallet loads) are owned by their
// subsystems; this package only hosts the channels that have no better owner.
package notify

import (
	"sort"
	"strings"
	"sync"

	"github.com/emberchain/go-ember/event"
)

// Message box style flags. The low bits select the icon, the high bits the
// buttons and modality.
const (
	MsgIconInformation uint32 = 0
	MsgIconWarning     uint32 = 1 << 0
	MsgIconError       uint32 = 1 << 1

	MsgBtnOK    uint32 = 1 << 8
	MsgBtnAbort uint32 = 1 << 9

	MsgModal  uint32 = 1 << 16
	MsgSecure uint32 = 1 << 17 // do not echo the message to the log
)

// Message is an interactive message box request. Subscribers answer true if
// they displayed the message to the user.
type Message struct {
	Text    string
	Caption string
	Style   uint32
}

// Question is a yes/no prompt. NonInteractiveText is shown instead of Text
// when no interactive subscriber is present.
type Question struct {
	Text               string
	NonInteractiveText string
	Caption            string
	Style              uint32
}

// Progress reports a long-running operation. Percent runs 0..100; Resumable
// indicates the operation can be interrupted and picked up later.
type Progress struct {
	Title     string
	Percent   int
	Resumable bool
}

// Events is the set of node-level notification channels. One instance is
// owned by the node and shared, read-only, with the façade layer.
//
// The zero value is ready to use.
type Events struct {
	initMessage  event.Channel[string]
	messageBox   event.Query[Message]
	question     event.Query[Question]
	showProgress event.Channel[Progress]
	alertChanged event.Channel[struct{}]

	warnMu   sync.Mutex
	warnings map[string]string
}

// InitMessage announces a startup phase description.
func (e *Events) InitMessage(message string) {
	uiEvents.WithLabelValues("init_message").Inc()
	e.initMessage.Send(message)
}

// MessageBox requests an interactive message display and reports whether any
// subscriber handled it.
func (e *Events) MessageBox(text, caption string, style uint32) bool {
	uiEvents.WithLabelValues("message_box").Inc()
	acked, _ := e.messageBox.Send(Message{Text: text, Caption: caption, Style: style})
	return acked
}

// Question asks an interactive yes/no question; the answer is true only if a
// subscriber confirmed.
func (e *Events) Question(text, nonInteractiveText, caption string, style uint32) bool {
	uiEvents.WithLabelValues("question").Inc()
	acked, _ := e.question.Send(Question{
		Text:               text,
		NonInteractiveText: nonInteractiveText,
		Caption:            caption,
		Style:              style,
	})
	return acked
}

// ShowProgress reports progress of a long-running node operation.
func (e *Events) ShowProgress(title string, percent int, resumable bool) {
	uiEvents.WithLabelValues("show_progress").Inc()
	e.showProgress.Send(Progress{Title: title, Percent: percent, Resumable: resumable})
}

// AlertChanged signals that the active alert set changed.
func (e *Events) AlertChanged() {
	uiEvents.WithLabelValues("alert_changed").Inc()
	e.alertChanged.Send(struct{}{})
}

// SetWarning installs or updates the warning registered under id and fires
// AlertChanged. Setting the same text again is a no-op.
func (e *Events) SetWarning(id, text string) {
	e.warnMu.Lock()
	if e.warnings[id] == text {
		e.warnMu.Unlock()
		return
	}
	if e.warnings == nil {
		e.warnings = make(map[string]string)
	}
	e.warnings[id] = text
	e.warnMu.Unlock()
	e.AlertChanged()
}

// ClearWarning removes the warning registered under id, firing AlertChanged
// if it was present.
func (e *Events) ClearWarning(id string) {
	e.warnMu.Lock()
	_, ok := e.warnings[id]
	delete(e.warnings, id)
	e.warnMu.Unlock()
	if ok {
		e.AlertChanged()
	}
}

// Warnings returns the active warnings as a single display string, ordered
// by their registration ids. It is empty when there is nothing to report.
func (e *Events) Warnings() string {
	e.warnMu.Lock()
	defer e.warnMu.Unlock()
	ids := make([]string, 0, len(e.warnings))
	for id := range e.warnings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	texts := make([]string, len(ids))
	for i, id := range ids {
		texts[i] = e.warnings[id]
	}
	return strings.Join(texts, "; ")
}

// HandleInitMessage registers fn for startup phase announcements.
func (e *Events) HandleInitMessage(fn func(message string)) event.Subscription {
	return e.initMessage.Subscribe(fn)
}

// HandleMessageBox registers fn for interactive message requests.
func (e *Events) HandleMessageBox(fn func(Message) bool) event.Subscription {
	return e.messageBox.Subscribe(fn)
}

// HandleQuestion registers fn for interactive questions.
func (e *Events) HandleQuestion(fn func(Question) bool) event.Subscription {
	return e.question.Subscribe(fn)
}

// HandleShowProgress registers fn for progress reports.
func (e *Events) HandleShowProgress(fn func(Progress)) event.Subscription {
	return e.showProgress.Subscribe(fn)
}

// HandleAlertChanged registers fn for alert set changes.
func (e *Events) HandleAlertChanged(fn func()) event.Subscription {
	return e.alertChanged.Subscribe(func(struct{}) { fn() })
}

// Close tears down all channels. Handles issued earlier stay safe to
// unsubscribe.
func (e *Events) Close() {
	e.initMessage.Close()
	e.messageBox.Close()
	e.question.Close()
	e.showProgress.Close()
	e.alertChanged.Close()
}
