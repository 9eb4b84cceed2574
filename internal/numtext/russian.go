// Package numtext 数字与月份的俄文书写形式（合同金额大写、月份名）
package numtext

import "strings"

type gender int

const (
	masculine gender = iota
	feminine
)

var (
	unitsMasculine = [...]string{"", "один", "два", "три", "четыре", "пять", "шесть", "семь", "восемь", "девять"}
	unitsFeminine  = [...]string{"", "одна", "две", "три", "четыре", "пять", "шесть", "семь", "восемь", "девять"}
	teens          = [...]string{"десять", "одиннадцать", "двенадцать", "тринадцать", "четырнадцать", "пятнадцать", "шестнадцать", "семнадцать", "восемнадцать", "девятнадцать"}
	tens           = [...]string{"", "", "двадцать", "тридцать", "сорок", "пятьдесят", "шестьдесят", "семьдесят", "восемьдесят", "девяносто"}
	hundreds       = [...]string{"", "сто", "двести", "триста", "четыреста", "пятьсот", "шестьсот", "семьсот", "восемьсот", "девятьсот"}
)

type scale struct {
	forms  [3]string // 1 / 2-4 / 5+
	gender gender
}

// 下标 i 对应 1000^i
var scales = [...]scale{
	{forms: [3]string{"", "", ""}, gender: masculine},
	{forms: [3]string{"тысяча", "тысячи", "тысяч"}, gender: feminine},
	{forms: [3]string{"миллион", "миллиона", "миллионов"}, gender: masculine},
	{forms: [3]string{"миллиард", "миллиарда", "миллиардов"}, gender: masculine},
	{forms: [3]string{"триллион", "триллиона", "триллионов"}, gender: masculine},
	{forms: [3]string{"квадриллион", "квадриллиона", "квадриллионов"}, gender: masculine},
	{forms: [3]string{"квинтиллион", "квинтиллиона", "квинтиллионов"}, gender: masculine},
}

// Cardinal 整数的俄文基数词（小写，不带货币/小数部分）
// 例: 1200000 -> "один миллион двести тысяч"
func Cardinal(n int64) string {
	if n == 0 {
		return "ноль"
	}

	var u uint64
	negative := n < 0
	if negative {
		u = uint64(-(n + 1)) + 1
	} else {
		u = uint64(n)
	}

	var groups []uint64
	for u > 0 {
		groups = append(groups, u%1000)
		u /= 1000
	}

	words := make([]string, 0, len(groups)*4)
	if negative {
		words = append(words, "минус")
	}
	for i := len(groups) - 1; i >= 0; i-- {
		g := groups[i]
		if g == 0 {
			continue
		}
		sc := scales[i]
		words = append(words, tripletWords(int(g), sc.gender)...)
		if i > 0 {
			words = append(words, sc.forms[pluralForm(int(g))])
		}
	}
	return strings.Join(words, " ")
}

func tripletWords(n int, g gender) []string {
	var out []string
	if h := n / 100; h > 0 {
		out = append(out, hundreds[h])
	}
	rest := n % 100
	switch {
	case rest >= 10 && rest < 20:
		out = append(out, teens[rest-10])
	default:
		if t := rest / 10; t > 0 {
			out = append(out, tens[t])
		}
		if u := rest % 10; u > 0 {
			if g == feminine {
				out = append(out, unitsFeminine[u])
			} else {
				out = append(out, unitsMasculine[u])
			}
		}
	}
	return out
}

// pluralForm 0: одна тысяча, 1: две тысячи, 2: пять тысяч
func pluralForm(n int) int {
	if r := n % 100; r >= 11 && r <= 14 {
		return 2
	}
	switch n % 10 {
	case 1:
		return 0
	case 2, 3, 4:
		return 1
	default:
		return 2
	}
}

var monthNames = [...]string{
	"январь", "февраль", "март", "апрель", "май", "июнь",
	"июль", "август", "сентябрь", "октябрь", "ноябрь", "декабрь",
}

// MonthName 月份（1-12）的俄文名称（主格），越界返回 ""
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}
