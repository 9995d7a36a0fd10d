package ledger

import (
	"time"

	"restaurant-backend/internal/models"

	"gorm.io/gorm"
)

// Filter narrows a transaction listing. Zero values match everything.
type Filter struct {
	Type          models.TransactionType
	ReferenceType models.ReferenceType
	ReferenceID   uint
	Start         *time.Time
	End           *time.Time // inclusive day
	Limit         int
}

func ListTransactions(db *gorm.DB, f Filter) ([]models.Transaction, error) {
	q := db.Model(&models.Transaction{})
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.ReferenceType != "" {
		q = q.Where("reference_type = ?", f.ReferenceType)
	}
	if f.ReferenceID != 0 {
		q = q.Where("reference_id = ?", f.ReferenceID)
	}
	if f.Start != nil {
		q = q.Where("created_at >= ?", *f.Start)
	}
	if f.End != nil {
		q = q.Where("created_at < ?", f.End.AddDate(0, 0, 1))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []models.Transaction
	err := q.Order("created_at desc, id desc").Find(&out).Error
	return out, err
}

type TypeTotal struct {
	Type  models.TransactionType `json:"type"`
	Count int64                  `json:"count"`
	Total float64                `json:"total"`
}

type MonthlySummary struct {
	Year           int         `json:"year"`
	Month          int         `json:"month"`
	ByType         []TypeTotal `json:"by_type"`
	TotalIn        float64     `json:"total_in"`
	TotalOut       float64     `json:"total_out"`
	Net            float64     `json:"net"`
	OpeningBalance float64     `json:"opening_balance"`
	ClosingBalance float64     `json:"closing_balance"`
}

// Summarize totals one calendar month of ledger movements.
func Summarize(db *gorm.DB, year, month int) (*MonthlySummary, error) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)

	var txs []models.Transaction
	if err := db.Where("created_at >= ? AND created_at < ?", first, next).
		Order("created_at asc, id asc").Find(&txs).Error; err != nil {
		return nil, err
	}

	s := &MonthlySummary{Year: year, Month: month, ByType: []TypeTotal{}}
	idx := map[models.TransactionType]int{}
	for _, t := range txs {
		i, ok := idx[t.Type]
		if !ok {
			i = len(s.ByType)
			idx[t.Type] = i
			s.ByType = append(s.ByType, TypeTotal{Type: t.Type})
		}
		s.ByType[i].Count++
		s.ByType[i].Total = Round(s.ByType[i].Total + t.Amount)

		delta := Apply(0, t.Type, t.Amount)
		if delta >= 0 {
			s.TotalIn = Round(s.TotalIn + delta)
		} else {
			s.TotalOut = Round(s.TotalOut - delta)
		}
	}
	s.Net = Round(s.TotalIn - s.TotalOut)

	if len(txs) > 0 {
		s.OpeningBalance = txs[0].BalanceBefore
		s.ClosingBalance = txs[len(txs)-1].BalanceAfter
	} else {
		bal, err := BalanceAt(db, first)
		if err != nil {
			return nil, err
		}
		s.OpeningBalance, s.ClosingBalance = bal, bal
	}
	return s, nil
}

// BalanceAt returns the balance after the last transaction before t.
func BalanceAt(db *gorm.DB, t time.Time) (float64, error) {
	var last models.Transaction
	err := db.Where("created_at < ?", t).Order("created_at desc, id desc").Limit(1).Find(&last).Error
	if err != nil {
		return 0, err
	}
	return last.BalanceAfter, nil
}

type DailyBalance struct {
	Date    string  `json:"date"`
	In      float64 `json:"in"`
	Out     float64 `json:"out"`
	Balance float64 `json:"balance"`
}

// DailyBalances returns the closing balance of each of the last days days,
// ending today, oldest first.
func DailyBalances(db *gorm.DB, days int, now time.Time) ([]DailyBalance, error) {
	if days <= 0 {
		days = 30
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(days - 1))

	running, err := BalanceAt(db, start)
	if err != nil {
		return nil, err
	}

	var txs []models.Transaction
	if err := db.Where("created_at >= ? AND created_at < ?", start, today.AddDate(0, 0, 1)).
		Order("created_at asc, id asc").Find(&txs).Error; err != nil {
		return nil, err
	}

	out := make([]DailyBalance, 0, days)
	i := 0
	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)
		end := day.AddDate(0, 0, 1)
		point := DailyBalance{Date: day.Format("2006-01-02")}
		for ; i < len(txs) && txs[i].CreatedAt.Before(end); i++ {
			delta := Apply(0, txs[i].Type, txs[i].Amount)
			if delta >= 0 {
				point.In = Round(point.In + delta)
			} else {
				point.Out = Round(point.Out - delta)
			}
			running = txs[i].BalanceAfter
		}
		point.Balance = running
		out = append(out, point)
	}
	return out, nil
}
