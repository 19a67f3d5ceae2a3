package scoring

import (
	"reflect"
	"strings"
	"testing"

	types "github.com/yungbote/findable-backend/internal/domain"
)

func TestIdentityNames(t *testing.T) {
	cases := []struct {
		name    string
		project *types.Project
		want    []string
	}{
		{
			name:    "name domain and suffix",
			project: &types.Project{Name: "Resend API", Domain: "https://www.resend.com/docs"},
			want:    []string{"resend api", "resend.com", "resend"},
		},
		{
			name:    "bare domain",
			project: &types.Project{Name: "Postmark", Domain: "www.postmarkapp.com"},
			want:    []string{"postmark", "postmarkapp.com"},
		},
		{
			name:    "no domain no suffix",
			project: &types.Project{Name: "Loops"},
			want:    []string{"loops"},
		},
		{
			name:    "suffix matched case-insensitively",
			project: &types.Project{Name: "Acme Platform"},
			want:    []string{"acme platform", "acme"},
		},
		{
			name:    "domain equal to name is deduplicated",
			project: &types.Project{Name: "acme.io", Domain: "acme.io"},
			want:    []string{"acme.io"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := IdentityNames(tc.project)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("IdentityNames: want=%v got=%v", tc.want, got)
			}
		})
	}
	if got := IdentityNames(nil); got != nil {
		t.Fatalf("IdentityNames(nil): want=nil got=%v", got)
	}
}

func TestDomainHost(t *testing.T) {
	cases := map[string]string{
		"":                          "",
		"resend.com":                "resend.com",
		"WWW.Resend.com":            "resend.com",
		"https://www.resend.com/x":  "resend.com",
		"http://resend.com:8080/a":  "resend.com",
		"resend.com/docs?ref=ai":    "resend.com",
		"  https://api.resend.com ": "api.resend.com",
	}
	for in, want := range cases {
		if got := DomainHost(in); got != want {
			t.Fatalf("DomainHost(%q): want=%q got=%q", in, want, got)
		}
	}
}

func TestIsMentioned(t *testing.T) {
	names := []string{"resend", "resend.com"}
	cases := []struct {
		name   string
		result *types.RunResult
		want   bool
	}{
		{"substring in response", &types.RunResult{ResponseText: "Try RESEND for transactional mail."}, true},
		{"domain in response", &types.RunResult{ResponseText: "See resend.com for pricing."}, true},
		{"explicit mention", &types.RunResult{ResponseText: "No names here.", Mentions: []string{" Resend "}}, true},
		{"explicit mention must match whole", &types.RunResult{ResponseText: "nothing", Mentions: []string{"Resender"}}, false},
		{"absent", &types.RunResult{ResponseText: "Use Postmark."}, false},
		{"nil result", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsMentioned(tc.result, names); got != tc.want {
				t.Fatalf("IsMentioned: want=%v got=%v", tc.want, got)
			}
		})
	}
	if IsMentioned(&types.RunResult{ResponseText: "resend"}, nil) {
		t.Fatalf("IsMentioned with no names: want=false")
	}
}

func TestIsRecommendedWithinWindow(t *testing.T) {
	r := &types.RunResult{ResponseText: "CompetitorX is not great, but for sending email we recommend Resend."}
	if !IsRecommended(r, []string{"resend"}) {
		t.Fatalf("IsRecommended: want=true got=false")
	}
}

func TestIsRecommendedOutsideWindow(t *testing.T) {
	filler := strings.Repeat("the quick brown fox jumps over a lazy dog. ", 8)
	r := &types.RunResult{ResponseText: "We recommend picking a provider carefully. " + filler + "Resend was mentioned here."}
	if IsRecommended(r, []string{"resend"}) {
		t.Fatalf("IsRecommended: want=false for a name far from any recommendation term")
	}
}

func TestIsRecommendedUsesEarliestOccurrence(t *testing.T) {
	filler := strings.Repeat("the quick brown fox jumps over a lazy dog. ", 8)
	// The first occurrence is neutral; praise only surrounds a later one.
	r := &types.RunResult{ResponseText: "Resend exists. " + filler + "We recommend Resend."}
	if IsRecommended(r, []string{"resend"}) {
		t.Fatalf("IsRecommended: want=false, only the earliest occurrence is inspected")
	}
}

func TestIsRecommendedClampsAtBounds(t *testing.T) {
	if !IsRecommended(&types.RunResult{ResponseText: "Resend: try it"}, []string{"resend"}) {
		t.Fatalf("IsRecommended: want=true near text start")
	}
	if !IsRecommended(&types.RunResult{ResponseText: "the best is Resend"}, []string{"resend"}) {
		t.Fatalf("IsRecommended: want=true near text end")
	}
	if IsRecommended(&types.RunResult{ResponseText: "Postmark is the best"}, []string{"resend"}) {
		t.Fatalf("IsRecommended: want=false when name is absent")
	}
}

func TestIsRecommendedMultibyteText(t *testing.T) {
	prefix := strings.Repeat("é", 150)
	r := &types.RunResult{ResponseText: prefix + " Resend " + strings.Repeat("ü", 150)}
	if IsRecommended(r, []string{"resend"}) {
		t.Fatalf("IsRecommended: want=false for multibyte padding without terms")
	}
	r.ResponseText = prefix + " we suggest Resend " + strings.Repeat("ü", 150)
	if !IsRecommended(r, []string{"resend"}) {
		t.Fatalf("IsRecommended: want=true for multibyte padding with a term")
	}
}
