package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Review описывает отзыв пользователя о товаре. На товар приходится не больше одного отзыва от пользователя.
type Review struct {
	ID      uuid.UUID `json:"_id" validate:"required"`
	UserID  uuid.UUID `json:"user" validate:"required"`
	Name    string    `json:"name" validate:"required"`
	Rating  int       `json:"rating" validate:"gte=1,lte=5"`
	Comment string    `json:"comment" validate:"required"`
}

// Reviews хранит упорядоченный набор отзывов с индексом по пользователю.
// Порядок добавления сохраняется при выдаче и сериализации.
type Reviews struct {
	items  []Review
	byUser map[uuid.UUID]int
}

// NewReviews собирает набор из списка. При повторе пользователя оценка и комментарий
// берутся из последнего отзыва, идентификатор остаётся от первого.
func NewReviews(list []Review) Reviews {
	var rs Reviews
	for _, r := range list {
		rs.Upsert(r)
	}
	return rs
}

// Len возвращает количество отзывов.
func (rs *Reviews) Len() int {
	return len(rs.items)
}

// All возвращает копию отзывов в порядке добавления.
func (rs *Reviews) All() []Review {
	out := make([]Review, len(rs.items))
	copy(out, rs.items)
	return out
}

// ByUser возвращает отзыв пользователя.
func (rs *Reviews) ByUser(userID uuid.UUID) (Review, bool) {
	i, ok := rs.byUser[userID]
	if !ok {
		return Review{}, false
	}
	return rs.items[i], true
}

// Upsert добавляет отзыв или, если у пользователя он уже есть, обновляет
// только rating и comment. Возвращает true, если отзыв был добавлен.
func (rs *Reviews) Upsert(r Review) bool {
	if rs.byUser == nil {
		rs.byUser = make(map[uuid.UUID]int)
	}

	if i, ok := rs.byUser[r.UserID]; ok {
		rs.items[i].Rating = r.Rating
		rs.items[i].Comment = r.Comment
		return false
	}

	rs.byUser[r.UserID] = len(rs.items)
	rs.items = append(rs.items, r)
	return true
}

// Remove удаляет отзыв по идентификатору. Возвращает false, если такого отзыва нет.
func (rs *Reviews) Remove(reviewID uuid.UUID) bool {
	for i, r := range rs.items {
		if r.ID != reviewID {
			continue
		}
		rs.items = append(rs.items[:i:i], rs.items[i+1:]...)
		rs.reindex()
		return true
	}
	return false
}

func (rs *Reviews) reindex() {
	rs.byUser = make(map[uuid.UUID]int, len(rs.items))
	for i, r := range rs.items {
		rs.byUser[r.UserID] = i
	}
}

// Clone возвращает независимую копию набора.
func (rs Reviews) Clone() Reviews {
	return NewReviews(rs.items)
}

// MarshalJSON сериализует набор как массив.
func (rs Reviews) MarshalJSON() ([]byte, error) {
	if rs.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(rs.items)
}

// UnmarshalJSON читает набор из массива.
func (rs *Reviews) UnmarshalJSON(data []byte) error {
	var list []Review
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*rs = NewReviews(list)
	return nil
}

// Aggregate вычисляет среднюю оценку и число отзывов. Для пустого набора средняя равна 0.
func Aggregate(reviews []Review) (float64, int) {
	n := len(reviews)
	if n == 0 {
		return 0, 0
	}

	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(n), n
}
