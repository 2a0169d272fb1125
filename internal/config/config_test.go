package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MeetingsTable != "Meetings" {
		t.Errorf("MeetingsTable = %q, want Meetings", cfg.MeetingsTable)
	}
	if cfg.FetchAttempts != 3 {
		t.Errorf("FetchAttempts = %d, want 3", cfg.FetchAttempts)
	}
	if cfg.EscribeBaseURL == "" || cfg.EscribeBaseURL[len(cfg.EscribeBaseURL)-1] != '/' {
		t.Errorf("EscribeBaseURL should end with a slash, got %q", cfg.EscribeBaseURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AIRTABLE_MEETINGS_TABLE", "CouncilMeetings")
	t.Setenv("FETCH_ATTEMPTS", "5")
	t.Setenv("ESCRIBE_INSECURE_TLS", "1")
	t.Setenv("ESCRIBE_BASE_URL", "https://example.test/escribe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MeetingsTable != "CouncilMeetings" {
		t.Errorf("MeetingsTable = %q, want CouncilMeetings", cfg.MeetingsTable)
	}
	if cfg.FetchAttempts != 5 {
		t.Errorf("FetchAttempts = %d, want 5", cfg.FetchAttempts)
	}
	if !cfg.InsecureTLS {
		t.Error("InsecureTLS should be true")
	}
	if cfg.EscribeBaseURL != "https://example.test/escribe/" {
		t.Errorf("EscribeBaseURL = %q, want trailing slash appended", cfg.EscribeBaseURL)
	}
}

func TestValidateForUpload(t *testing.T) {
	cfg := Config{}
	if err := cfg.ValidateForUpload(); err == nil {
		t.Error("expected error for missing credentials")
	}

	cfg.AirtableToken = "tok"
	if err := cfg.ValidateForUpload(); err == nil {
		t.Error("expected error for missing base ID")
	}

	cfg.AirtableBaseID = "appXXXX"
	if err := cfg.ValidateForUpload(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
