package ranking

import "testing"

func intPtr(n int) *int { return &n }

func TestBound(t *testing.T) {
	tests := []struct {
		name string
		n    *int
		want int
	}{
		{"не указан — по умолчанию", nil, DefaultCount},
		{"ноль", intPtr(0), 0},
		{"отрицательное", intPtr(-3), 0},
		{"в пределах", intPtr(42), 42},
		{"ровно максимум", intPtr(MaxCount), MaxCount},
		{"больше максимума", intPtr(1000), MaxCount},
		{"единица", intPtr(1), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Bound(tt.n); got != tt.want {
				t.Errorf("Bound() = %d, ожидается %d", got, tt.want)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{Latest, MostViewed, Random} {
		got, err := ParseMode(string(m))
		if err != nil {
			t.Errorf("ParseMode(%q) вернул ошибку: %v", m, err)
		}
		if got != m {
			t.Errorf("ParseMode(%q) = %q", m, got)
		}
	}

	if _, err := ParseMode("oldest"); err == nil {
		t.Error("ParseMode(oldest) не вернул ошибку")
	}
}
