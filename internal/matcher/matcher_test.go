package matcher

import (
	"testing"

	"RecordSync/internal/domain"
)

func TestIsSimilarAddressIsReflexive(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"東京都港区芝公園４丁目２－８",
		"北海道札幌市中央区北1条西2丁目",
		"どこか",
		"1丁号目",
	}
	for _, in := range inputs {
		if !IsSimilarAddress(in, in) {
			t.Fatalf("IsSimilarAddress(%q, %q) = false", in, in)
		}
	}
}

func TestIsSimilarAddress(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		input     string
		candidate string
		want      bool
	}{
		{name: "width and markers", input: "東京都千代田区霞が関１丁目２番２号", candidate: "東京都千代田区霞が関1-2-2", want: true},
		{name: "candidate contains input", input: "千代田区霞が関1-2-2", candidate: "東京都千代田区霞が関1-2-2", want: true},
		{name: "input contains candidate", input: "東京都千代田区霞が関1-2-2 中央合同庁舎", candidate: "東京都千代田区霞が関1-2", want: true},
		{name: "same municipality", input: "福島県いわき市平字田町1-1", candidate: "福島県いわき市小名浜2丁目3番", want: true},
		{name: "other municipality", input: "福島県いわき市平字田町1-1", candidate: "福島県郡山市朝日1丁目", want: false},
		{name: "other prefecture", input: "東京都港区芝1-1", candidate: "大阪府大阪市北区梅田1-1", want: false},
		{name: "no prefecture", input: "いわき市平1-1", candidate: "いわき市小名浜2-3", want: false},
		{name: "prefecture without municipality", input: "北海道どこか1", candidate: "北海道どこか2", want: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsSimilarAddress(tc.input, tc.candidate); got != tc.want {
				t.Fatalf("IsSimilarAddress(%q, %q) = %v, want %v", tc.input, tc.candidate, got, tc.want)
			}
		})
	}
}

func TestIsSimilarName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input     string
		candidate string
		want      bool
	}{
		{input: "デイサービス（さくら）", candidate: "デイサービス(さくら)", want: true},
		{input: "デイサービス さくら", candidate: "社会福祉法人デイサービスさくら", want: true},
		{input: "ケアプランひまわり", candidate: "ケアプラン", want: true},
		{input: "ケアプランひまわり", candidate: "訪問介護すみれ", want: false},
	}
	for _, tc := range cases {
		if got := IsSimilarName(tc.input, tc.candidate); got != tc.want {
			t.Fatalf("IsSimilarName(%q, %q) = %v, want %v", tc.input, tc.candidate, got, tc.want)
		}
	}
}

func TestSelectMatchesRequiresNameAndAddress(t *testing.T) {
	t.Parallel()

	input := domain.InputRecord{Name: "つなぐ手ケアマネセンター", Address: "東京都港区芝1-1"}
	candidates := []domain.CandidateRecord{
		{Name: "つなぐ手ケアマネセンター", Address: "大阪府大阪市北区梅田1-1", RegistryID: "1"},
		{Name: "つなぐ手ケアマネセンター", Address: "東京都港区芝５丁目", RegistryID: "2"},
		{Name: "別の事業所", Address: "東京都港区芝1-1", RegistryID: "3"},
		{Name: "つなぐ手 ケアマネセンター", Address: "東京都港区芝１－１", RegistryID: "4"},
	}

	got := SelectMatches(input, candidates)
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d: %+v", len(got), got)
	}
	if got[0].RegistryID != "2" || got[1].RegistryID != "4" {
		t.Fatalf("unexpected matches or order: %+v", got)
	}
}

func TestSelectMatchesEmpty(t *testing.T) {
	t.Parallel()

	got := SelectMatches(domain.InputRecord{Name: "a", Address: "b"}, nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestMunicipality(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "港区芝1-1", want: "港区"},
		{in: "大阪市北区梅田", want: "大阪市"},
		{in: "いわき市平字田町1", want: "いわき市"},
		{in: "", want: ""},
		{in: "どこか1-2", want: ""},
	}
	for _, tc := range cases {
		if got := Municipality(tc.in); got != tc.want {
			t.Fatalf("Municipality(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
