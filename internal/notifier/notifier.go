// Package notifier хранилища одноразовых уведомлений: планирование, отмена и выдача к доставке.
package notifier

import "errors"

// ErrNotFound доставка неизвестного или уже снятого уведомления.
var ErrNotFound = errors.New("уведомление не найдено")
