package express

import (
	"testing"
	"time"

	"pesaflow/internal/mpesa"
)

func TestFlattenMetadata(t *testing.T) {
	t.Run("nil metadata yields an empty map", func(t *testing.T) {
		m := flattenMetadata(nil)
		if len(m) != 0 {
			t.Errorf("expected empty map, got %v", m)
		}
	})

	t.Run("duplicate names keep the last value", func(t *testing.T) {
		m := flattenMetadata(&mpesa.CallbackMetadata{Item: []mpesa.MetadataItem{
			{Name: "Amount", Value: float64(100)},
			{Name: "Amount", Value: float64(200)},
		}})
		if m["Amount"] != float64(200) {
			t.Errorf("expected last write to win, got %v", m["Amount"])
		}
	})

	t.Run("absent keys read as nil", func(t *testing.T) {
		m := flattenMetadata(&mpesa.CallbackMetadata{})
		if v, ok := m["MpesaReceiptNumber"]; ok {
			t.Errorf("expected absent key, got %v", v)
		}
		if metadataString(m["MpesaReceiptNumber"]) != "" {
			t.Error("absent key should render as empty string")
		}
	})
}

func TestParseTransactionDate(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  time.Time
		ok    bool
	}{
		{"numeric timestamp", float64(20240115143022), time.Date(2024, 1, 15, 14, 30, 22, 0, time.UTC), true},
		{"string timestamp", "20240115143022", time.Date(2024, 1, 15, 14, 30, 22, 0, time.UTC), true},
		{"garbage", "abc", time.Time{}, false},
		{"too short", "20240115", time.Time{}, false},
		{"too long", "202401151430221", time.Time{}, false},
		{"non-digits of right width", "2024011514302x", time.Time{}, false},
		{"out-of-range month", "20241315143022", time.Time{}, false},
		{"nil", nil, time.Time{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseTransactionDate(tc.value)
			if ok != tc.ok {
				t.Fatalf("ok=%v, want %v", ok, tc.ok)
			}
			if ok && !got.Equal(tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMetadataFloat(t *testing.T) {
	if v, ok := metadataFloat(float64(288.5)); !ok || v != 288.5 {
		t.Errorf("numeric balance: got %v/%v", v, ok)
	}
	if v, ok := metadataFloat("288.50"); !ok || v != 288.5 {
		t.Errorf("string balance: got %v/%v", v, ok)
	}
	if _, ok := metadataFloat("not a number"); ok {
		t.Error("garbage should not parse")
	}
	if _, ok := metadataFloat(nil); ok {
		t.Error("nil should not parse")
	}
}
