package promo

// ValidCode проверяет синтаксис промокода: префикс "PROMO-" и ровно
// четыре символа A-Z/0-9. Проверка существования кода в реестре
// выполняется отдельно.
func ValidCode(code string) bool {
	const prefix = "PROMO-"
	const suffixLen = 4

	if len(code) != len(prefix)+suffixLen {
		return false
	}
	if code[:len(prefix)] != prefix {
		return false
	}

	for _, ch := range code[len(prefix):] {
		isDigit := ch >= '0' && ch <= '9'
		isUpper := ch >= 'A' && ch <= 'Z'
		if !isDigit && !isUpper {
			return false
		}
	}

	return true
}
