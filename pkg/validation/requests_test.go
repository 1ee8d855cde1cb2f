package validation

import (
	"strings"
	"testing"
)

func TestValidateExpandRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     *ExpandRequest
		wantErr string
	}{
		{
			name: "valid",
			req:  &ExpandRequest{ID: "http://example.org/scd#IED/BCU1", Kind: "IED"},
		},
		{
			name:    "nil request",
			req:     nil,
			wantErr: "expand request cannot be nil",
		},
		{
			name:    "missing id",
			req:     &ExpandRequest{Kind: "IED"},
			wantErr: "ID: field is required",
		},
		{
			name:    "blank id",
			req:     &ExpandRequest{ID: "   ", Kind: "IED"},
			wantErr: "ID: field is required",
		},
		{
			name:    "missing kind",
			req:     &ExpandRequest{ID: "urn:node"},
			wantErr: "Kind: field is required",
		},
		{
			name:    "oversized id",
			req:     &ExpandRequest{ID: strings.Repeat("x", 513), Kind: "IED"},
			wantErr: "ID: must not exceed 512",
		},
		{
			// Unknown kinds pass validation; the navigator rejects them.
			name: "unknown kind is not a validation error",
			req:  &ExpandRequest{ID: "urn:node", Kind: "Bay"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExpandRequest(tt.req)
			checkValidationError(t, err, tt.wantErr)
		})
	}
}

func TestValidateListRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     *ListRequest
		wantErr string
	}{
		{
			name: "empty request defaults",
			req:  &ListRequest{},
		},
		{
			name: "group by type",
			req:  &ListRequest{GroupBy: "type"},
		},
		{
			name: "group by bay with search",
			req:  &ListRequest{GroupBy: "bay", Search: "BCU"},
		},
		{
			name:    "nil request",
			req:     nil,
			wantErr: "list request cannot be nil",
		},
		{
			name:    "unknown grouping",
			req:     &ListRequest{GroupBy: "zone"},
			wantErr: "GroupBy: must be one of [type bay]",
		},
		{
			name:    "grouping is case sensitive",
			req:     &ListRequest{GroupBy: "Type"},
			wantErr: "GroupBy: must be one of [type bay]",
		},
		{
			name:    "oversized search term",
			req:     &ListRequest{Search: strings.Repeat("s", 257)},
			wantErr: "Search: must not exceed 256",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateListRequest(tt.req)
			checkValidationError(t, err, tt.wantErr)
		})
	}
}

func TestValidateSessionRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     *SessionRequest
		wantErr string
	}{
		{
			name: "valid",
			req:  &SessionRequest{RootID: "urn:ied-1", RootKind: "IED", Label: "BCU1"},
		},
		{
			name: "label optional",
			req:  &SessionRequest{RootID: "urn:ied-1", RootKind: "IED"},
		},
		{
			name:    "nil request",
			req:     nil,
			wantErr: "session request cannot be nil",
		},
		{
			name:    "missing root id",
			req:     &SessionRequest{RootKind: "IED"},
			wantErr: "RootID: field is required",
		},
		{
			name:    "blank root id",
			req:     &SessionRequest{RootID: "\t", RootKind: "IED"},
			wantErr: "RootID: field is required",
		},
		{
			name:    "missing root kind",
			req:     &SessionRequest{RootID: "urn:ied-1"},
			wantErr: "RootKind: field is required",
		},
		{
			name:    "oversized label",
			req:     &SessionRequest{RootID: "urn:ied-1", RootKind: "IED", Label: strings.Repeat("l", 129)},
			wantErr: "Label: must not exceed 128",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionRequest(tt.req)
			checkValidationError(t, err, tt.wantErr)
		})
	}
}

func TestValidateExportRequest(t *testing.T) {
	if err := ValidateExportRequest(&ExportRequest{}); err != nil {
		t.Errorf("empty export request should be valid, got %v", err)
	}
	if err := ValidateExportRequest(&ExportRequest{Name: "nightly"}); err != nil {
		t.Errorf("named export request should be valid, got %v", err)
	}
	err := ValidateExportRequest(&ExportRequest{Name: strings.Repeat("n", 129)})
	checkValidationError(t, err, "Name: must not exceed 128")
	err = ValidateExportRequest(nil)
	checkValidationError(t, err, "export request cannot be nil")
}

func checkValidationError(t *testing.T, err error, want string) {
	t.Helper()
	if want == "" {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		return
	}
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}
