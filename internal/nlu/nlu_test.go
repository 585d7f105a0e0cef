package nlu

import "testing"

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Result
		wantErr bool
	}{
		{
			name:    "plain json",
			content: `{"intent":"search","query":"current time in Paris","result_length":"short"}`,
			want:    Result{Intent: IntentSearch, Query: "current time in Paris", ResultLength: LengthShort},
		},
		{
			name: "fenced json",
			content: "```json\n" +
				`{"intent":"speak","query":"hello there"}` + "\n```",
			want: Result{Intent: IntentSpeak, Query: "hello there", ResultLength: LengthDefault},
		},
		{
			name:    "missing length defaults",
			content: `{"intent":"clipboard","query":"note to self"}`,
			want:    Result{Intent: IntentClipboard, Query: "note to self", ResultLength: LengthDefault},
		},
		{
			name:    "not json",
			content: "Sure! The intent is clipboard.",
			wantErr: true,
		},
		{
			name:    "unknown intent",
			content: `{"intent":"open_app","query":"x"}`,
			wantErr: true,
		},
		{
			name:    "unknown length",
			content: `{"intent":"search","query":"x","result_length":"massive"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decode(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("decode(%q) succeeded, want error", tt.content)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want {
				t.Fatalf("decode = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFallbackRouting(t *testing.T) {
	tests := []struct {
		transcript string
		want       Intent
	}{
		{"search for coffee shops nearby", IntentSearch},
		{"search the web about go generics", IntentSearch},
		{"please search the web for me", IntentSearch},
		{"read this aloud: meeting at noon", IntentSpeak},
		{"speak the weather forecast", IntentSpeak},
		{"remind me to call Sam", IntentClipboard},
		{"", IntentClipboard},
	}

	for _, tt := range tests {
		got := fallback(tt.transcript)
		if got.Intent != tt.want {
			t.Errorf("fallback(%q).Intent = %s, want %s", tt.transcript, got.Intent, tt.want)
		}
		if got.Query != tt.transcript {
			t.Errorf("fallback(%q).Query = %q, want the transcript", tt.transcript, got.Query)
		}
		if got.ResultLength != LengthDefault {
			t.Errorf("fallback(%q).ResultLength = %s, want default", tt.transcript, got.ResultLength)
		}
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripFences(tt.in); got != tt.want {
			t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
