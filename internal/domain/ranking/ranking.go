// Пакет ranking — режимы ранжирования игр и правила ограничения выборки.
package ranking

import "fmt"

// Mode — режим ранжирования.
type Mode string

// Режимы ранжирования.
const (
	// Latest — по убыванию времени создания, при равенстве по убыванию id.
	Latest Mode = "latest"
	// MostViewed — по убыванию числа просмотров, при равенстве по убыванию id.
	MostViewed Mode = "most_viewed"
	// Random — равномерная выборка без повторений, каждый вызов заново.
	Random Mode = "random"
)

const (
	// DefaultCount — размер выборки, если n не указан.
	DefaultCount = 5
	// MaxCount — верхняя граница выборки независимо от запроса.
	MaxCount = 100
)

// Bound вычисляет фактический размер выборки.
// nil → DefaultCount, n <= 0 → 0, n > MaxCount → MaxCount.
func Bound(n *int) int {
	if n == nil {
		return DefaultCount
	}
	switch {
	case *n <= 0:
		return 0
	case *n > MaxCount:
		return MaxCount
	default:
		return *n
	}
}

// ParseMode преобразует строку в Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Latest, MostViewed, Random:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("неизвестный режим ранжирования: %q", s)
	}
}
