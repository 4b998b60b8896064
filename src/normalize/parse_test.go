package normalize

import (
	"testing"
	"time"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"6.942,61", "6942.61"},
		{"123,45", "123.45"},
		{"$5.096,79", "5096.79"},
		{"7356.1000", "7356.1"},
		{"2.550,00", "2550"},
		{"6.942", "6942"},
		{"1.234.567,89", "1234567.89"},
		{"1.234.567", "1234567"},
		{"41.2305", "41.2305"},
		{"₺ 2.555,00", "2555"},
		{"0,5", "0.5"},
		{"-12,5", "-12.5"},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePrice(tc.in)
			if err != nil {
				t.Fatalf("ParsePrice(%q) returned error: %v", tc.in, err)
			}
			if got.String() != tc.want {
				t.Fatalf("ParsePrice(%q) = %s, want %s", tc.in, got.String(), tc.want)
			}
		})
	}
}

func TestParsePriceRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "-", "--", "1,2,3"} {
		if _, err := ParsePrice(in); err == nil {
			t.Fatalf("ParsePrice(%q) expected error, got none", in)
		}
	}
}

func TestParseFlexibleDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"2024-01-05 13:30:00", time.Date(2024, 1, 5, 13, 30, 0, 0, time.UTC)},
		{"05.01.2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"05/01/2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"5 Ocak 2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"17 Şubat 2023", time.Date(2023, 2, 17, 0, 0, 0, 0, time.UTC)},
		{"3 Mayıs 2022", time.Date(2022, 5, 3, 0, 0, 0, 0, time.UTC)},
		{"12 Aralık 2021", time.Date(2021, 12, 12, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFlexibleDate(tc.in)
			if err != nil {
				t.Fatalf("ParseFlexibleDate(%q) returned error: %v", tc.in, err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("ParseFlexibleDate(%q) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseFlexibleDateMojibake(t *testing.T) {
	// Corrupted UTF-8 month names as returned by the secondary archive.
	cases := []struct {
		in   string
		want time.Time
	}{
		{"21 AÄŸustos 2023", time.Date(2023, 8, 21, 0, 0, 0, 0, time.UTC)},
		{"9 Åžubat 2024", time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC)},
		{"30 EylÃ¼l 2022", time.Date(2022, 9, 30, 0, 0, 0, 0, time.UTC)},
		{"2 KasÄ±m 2023", time.Date(2023, 11, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		got, err := ParseFlexibleDate(tc.in)
		if err != nil {
			t.Fatalf("ParseFlexibleDate(%q) returned error: %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("ParseFlexibleDate(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseFlexibleDateRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "yesterday", "99 Ocak 2024", "5 Blursday 2024"} {
		if _, err := ParseFlexibleDate(in); err == nil {
			t.Fatalf("ParseFlexibleDate(%q) expected error, got none", in)
		}
	}
}
