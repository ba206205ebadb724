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

package notify

import "testing"

func TestInitMessage(t *testing.T) {
	e := new(Events)
	defer e.Close()

	var msgs []string
	sub := e.HandleInitMessage(func(m string) { msgs = append(msgs, m) })
	defer sub.Unsubscribe()

	e.InitMessage("Loading block index")
	e.InitMessage("Done loading")

	if len(msgs) != 2 || msgs[0] != "Loading block index" || msgs[1] != "Done loading" {
		t.Fatalf("got %v", msgs)
	}
}

func TestMessageBoxAck(t *testing.T) {
	e := new(Events)
	defer e.Close()

	if e.MessageBox("hello", "Info", MsgIconInformation) {
		t.Fatal("message box without subscribers must not report handled")
	}

	sub := e.HandleMessageBox(func(m Message) bool {
		return m.Style&MsgIconError != 0
	})
	defer sub.Unsubscribe()

	if e.MessageBox("hello", "Info", MsgIconInformation) {
		t.Error("subscriber declined, must not report handled")
	}
	if !e.MessageBox("boom", "Error", MsgIconError) {
		t.Error("subscriber accepted, must report handled")
	}
}

func TestQuestionMultipleSubscribers(t *testing.T) {
	e := new(Events)
	defer e.Close()

	s1 := e.HandleQuestion(func(Question) bool { return false })
	defer s1.Unsubscribe()
	s2 := e.HandleQuestion(func(Question) bool { return true })
	defer s2.Unsubscribe()

	// One positive answer is enough.
	if !e.Question("proceed?", "non-interactive", "Confirm", MsgBtnOK) {
		t.Fatal("question must be confirmed when any subscriber answers true")
	}
}

func TestShowProgress(t *testing.T) {
	e := new(Events)
	defer e.Close()

	var got []Progress
	sub := e.HandleShowProgress(func(p Progress) { got = append(got, p) })
	defer sub.Unsubscribe()

	e.ShowProgress("Verifying blocks", 50, true)

	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].Title != "Verifying blocks" || got[0].Percent != 50 || !got[0].Resumable {
		t.Errorf("got %+v", got[0])
	}
}

func TestWarnings(t *testing.T) {
	e := new(Events)
	defer e.Close()

	alerts := 0
	sub := e.HandleAlertChanged(func() { alerts++ })
	defer sub.Unsubscribe()

	if w := e.Warnings(); w != "" {
		t.Fatalf("fresh warnings: got %q, want empty", w)
	}

	e.SetWarning("clock", "clock is wrong")
	e.SetWarning("clock", "clock is wrong") // same text, no event
	e.SetWarning("disk", "disk is low")
	if alerts != 2 {
		t.Fatalf("got %d alert events, want 2", alerts)
	}
	// Ordered by id: "clock" before "disk".
	if w := e.Warnings(); w != "clock is wrong; disk is low" {
		t.Fatalf("warnings: got %q", w)
	}

	e.SetWarning("clock", "clock is very wrong")
	if alerts != 3 {
		t.Fatalf("got %d alert events after update, want 3", alerts)
	}

	e.ClearWarning("clock")
	e.ClearWarning("clock") // already gone, no event
	if alerts != 4 {
		t.Fatalf("got %d alert events after clear, want 4", alerts)
	}
	if w := e.Warnings(); w != "disk is low" {
		t.Fatalf("warnings after clear: got %q", w)
	}
}

func TestAlertChanged(t *testing.T) {
	e := new(Events)
	defer e.Close()

	count := 0
	sub := e.HandleAlertChanged(func() { count++ })

	e.AlertChanged()
	sub.Unsubscribe()
	e.AlertChanged()

	if count != 1 {
		t.Fatalf("got %d alert events, want 1", count)
	}
}
