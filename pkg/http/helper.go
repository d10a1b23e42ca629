package http

import (
	"net/http"
	"strconv"

	"cabins/pkg/config"
	"cabins/pkg/days"
	apperrors "cabins/pkg/errors"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// ExtractDayRange reads a half-open [from, to) pair of YYYY-MM-DD query
// parameters.
func ExtractDayRange(r *http.Request, fromKey, toKey string) (from, to days.Day, err error) {
	query := r.URL.Query()
	from, err = days.Parse(query.Get(fromKey))
	if err != nil {
		return days.Day{}, days.Day{}, apperrors.InvalidInput("invalid " + fromKey + " parameter, must be YYYY-MM-DD")
	}
	to, err = days.Parse(query.Get(toKey))
	if err != nil {
		return days.Day{}, days.Day{}, apperrors.InvalidInput("invalid " + toKey + " parameter, must be YYYY-MM-DD")
	}
	if !to.After(from) {
		return days.Day{}, days.Day{}, apperrors.InvalidInput(toKey + " must be after " + fromKey)
	}
	return from, to, nil
}
