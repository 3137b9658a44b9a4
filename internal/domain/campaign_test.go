package domain_test

import (
	"errors"
	"testing"

	"github.com/belonio2793/backlinkoo-automation/internal/domain"
)

func TestNewCampaign(t *testing.T) {
	testCases := []struct {
		name    string
		req     domain.CampaignCreateRequest
		wantErr error
	}{
		{
			name: "valid request",
			req: domain.CampaignCreateRequest{
				Name:       "Go hosting roundup",
				Keyword:    "go hosting",
				AnchorText: "best go hosting",
				TargetURL:  "https://example.com/hosting",
			},
		},
		{
			name: "name defaults to keyword",
			req: domain.CampaignCreateRequest{
				Keyword:    "go hosting",
				AnchorText: "best go hosting",
				TargetURL:  "https://example.com/hosting",
			},
		},
		{
			name: "missing keyword",
			req: domain.CampaignCreateRequest{
				AnchorText: "best go hosting",
				TargetURL:  "https://example.com/hosting",
			},
			wantErr: domain.ErrInvalidCampaign,
		},
		{
			name: "missing target url",
			req: domain.CampaignCreateRequest{
				Keyword:    "go hosting",
				AnchorText: "best go hosting",
			},
			wantErr: domain.ErrInvalidCampaign,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			campaign, err := domain.NewCampaign(&tc.req)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("NewCampaign() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewCampaign() error = %v", err)
			}
			if campaign.Status != domain.CampaignStatusActive {
				t.Errorf("Status = %q, want %q", campaign.Status, domain.CampaignStatusActive)
			}
			if campaign.Name == "" {
				t.Error("Name should never be empty")
			}
		})
	}
}

func TestCampaignStateHelpers(t *testing.T) {
	testCases := []struct {
		status       domain.CampaignStatus
		wantTerminal bool
		wantPublish  bool
	}{
		{domain.CampaignStatusActive, false, true},
		{domain.CampaignStatusPaused, false, false},
		{domain.CampaignStatusCompleted, true, false},
		{domain.CampaignStatusFailed, true, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.status), func(t *testing.T) {
			c := domain.Campaign{Status: tc.status}
			if got := c.IsTerminal(); got != tc.wantTerminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tc.wantTerminal)
			}
			if got := c.CanPublish(); got != tc.wantPublish {
				t.Errorf("CanPublish() = %v, want %v", got, tc.wantPublish)
			}
		})
	}
}

func TestPublishedSet(t *testing.T) {
	set := domain.NewPublishedSet([]string{"telegraph", "writeas"})

	if !set.Contains("telegraph") {
		t.Error("set should contain telegraph")
	}
	if set.Contains("medium") {
		t.Error("set should not contain medium")
	}

	empty := domain.NewPublishedSet(nil)
	if len(empty) != 0 {
		t.Errorf("empty set has %d members", len(empty))
	}
}
