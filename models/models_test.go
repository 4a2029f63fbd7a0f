package models

import (
	"errors"
	"testing"
)

func TestNavigationActionValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		action  NavigationAction
		wantErr bool
	}{
		{
			name:   "done with link and year",
			action: NavigationAction{Kind: ActionDone, Link: Ptr("https://acme.example/ar.pdf"), ReferenceYear: Ptr("2023-12-31")},
		},
		{
			name:   "done without link is tolerated",
			action: NavigationAction{Kind: ActionDone},
		},
		{
			name:   "visit with target",
			action: NavigationAction{Kind: ActionVisit, LinkToVisit: Ptr("https://acme.example/investors")},
		},
		{
			name:    "visit without target",
			action:  NavigationAction{Kind: ActionVisit},
			wantErr: true,
		},
		{
			name:    "visit with blank target",
			action:  NavigationAction{Kind: ActionVisit, LinkToVisit: Ptr("  ")},
			wantErr: true,
		},
		{
			name:   "back with note",
			action: NavigationAction{Kind: ActionBack, Note: Ptr("press releases only")},
		},
		{
			name:    "back with visit target",
			action:  NavigationAction{Kind: ActionBack, LinkToVisit: Ptr("https://acme.example")},
			wantErr: true,
		},
		{
			name:   "abort with error",
			action: NavigationAction{Kind: ActionAbort, Error: Ptr("site is a parked domain")},
		},
		{
			name:    "abort with link",
			action:  NavigationAction{Kind: ActionAbort, Link: Ptr("https://acme.example/ar.pdf")},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			action:  NavigationAction{Kind: "retry"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := tt.action.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Validate() expected error, got nil")
				}
				if !errors.Is(err, ErrProtocolViolation) {
					t.Fatalf("Validate() error = %v, want ErrProtocolViolation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestParseReferenceYear(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      *string
		want    *int
		wantErr bool
	}{
		{name: "full iso date", in: Ptr("2023-12-31"), want: Ptr(2023)},
		{name: "bare year", in: Ptr("2023"), want: Ptr(2023)},
		{name: "nil passes through", in: nil, want: nil},
		{name: "non numeric", in: Ptr("fiscal 23"), wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReferenceYear(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseReferenceYear() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseReferenceYear() error = %v", err)
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ParseReferenceYear() got %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Fatalf("ParseReferenceYear() got %d, want %d", *got, *tt.want)
			}
		})
	}
}

func TestActionRecordIsFinal(t *testing.T) {
	t.Parallel()
	if !(ActionRecord{NavigationAction: NavigationAction{Kind: ActionDone}}).IsFinal() {
		t.Fatalf("done record should be final")
	}
	if !(ActionRecord{NavigationAction: NavigationAction{Kind: ActionAbort}}).IsFinal() {
		t.Fatalf("abort record should be final")
	}
	if (ActionRecord{NavigationAction: NavigationAction{Kind: ActionVisit}}).IsFinal() {
		t.Fatalf("visit record should not be final")
	}
}
