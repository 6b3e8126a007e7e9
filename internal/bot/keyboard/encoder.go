package keyboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Proton-105/cashback-bot/internal/conversation"
	"github.com/Proton-105/cashback-bot/internal/period"
)

const (
	CallbackDataSeparator  = ":"
	CallbackDataLimitBytes = 64
)

// Callback tokens of wizard buttons.
const (
	UniqueBank     = "bank"
	UniqueCategory = "cat"
	UniquePercent  = "pct"
	UniquePeriod   = "period"
	UniqueBack     = "back"
	UniqueExit     = "exit"
	UniqueDelete   = "del"
	UniqueToggle   = "toggle"
	UniqueDelCat   = "delcat"
	UniqueDelAll   = "delall"

	dataBank       = "bank"
	dataCat        = "cat"
	dataEntries    = "entries"
	dataCategories = "categories"
	dataAll        = "all"
	dataDone       = "done"
	dataYes        = "yes"
	dataNo         = "no"
)

// ErrUnknownCallback is returned for callback data that is not a wizard token.
var ErrUnknownCallback = errors.New("unknown callback data")

func EncodeCallback(unique, data string) (string, error) {
	if data == "" {
		if len(unique) > CallbackDataLimitBytes {
			return "", fmt.Errorf("callback data exceeds %d byte limit: got %d", CallbackDataLimitBytes, len(unique))
		}
		return unique, nil
	}

	payload := unique + CallbackDataSeparator + data
	if len(payload) > CallbackDataLimitBytes {
		return "", fmt.Errorf("callback data exceeds %d byte limit: got %d", CallbackDataLimitBytes, len(payload))
	}

	return payload, nil
}

func DecodeCallback(callbackData string) (unique, data string, err error) {
	if callbackData == "" {
		return "", "", errors.New("callback data is empty")
	}

	idx := strings.Index(callbackData, CallbackDataSeparator)
	if idx == -1 {
		return callbackData, "", nil
	}

	return callbackData[:idx], callbackData[idx+len(CallbackDataSeparator):], nil
}

// ActionButton maps a wizard action to its callback token parts.
func ActionButton(a conversation.Action) (unique, data string, err error) {
	switch a.Kind {
	case conversation.ActionChooseBank:
		return UniqueBank, strconv.FormatInt(a.ID, 10), nil
	case conversation.ActionChooseCategory:
		return UniqueCategory, strconv.FormatInt(a.ID, 10), nil
	case conversation.ActionChoosePercent:
		return UniquePercent, decimal.NewFromFloat(a.Percent).String(), nil
	case conversation.ActionChoosePeriod:
		return UniquePeriod, a.Period, nil
	case conversation.ActionBackToBanks:
		return UniqueBack, dataBank, nil
	case conversation.ActionBackToCategories:
		return UniqueBack, dataCat, nil
	case conversation.ActionExit:
		return UniqueExit, "", nil
	case conversation.ActionDeleteByEntries:
		return UniqueDelete, dataEntries, nil
	case conversation.ActionDeleteByCategories:
		return UniqueDelete, dataCategories, nil
	case conversation.ActionDeleteAll:
		return UniqueDelete, dataAll, nil
	case conversation.ActionToggleEntry:
		return UniqueToggle, strconv.FormatInt(a.ID, 10), nil
	case conversation.ActionConfirmSelection:
		return UniqueToggle, dataDone, nil
	case conversation.ActionToggleCategory:
		return UniqueDelCat, strconv.FormatInt(a.ID, 10), nil
	case conversation.ActionConfirmCategories:
		return UniqueDelCat, dataDone, nil
	case conversation.ActionConfirmDeleteAll:
		return UniqueDelAll, dataYes, nil
	case conversation.ActionCancelDeleteAll:
		return UniqueDelAll, dataNo, nil
	default:
		return "", "", fmt.Errorf("action %s has no button form", a.Kind)
	}
}

// EncodeAction renders a wizard action as callback data.
func EncodeAction(a conversation.Action) (string, error) {
	unique, data, err := ActionButton(a)
	if err != nil {
		return "", err
	}
	return EncodeCallback(unique, data)
}

// DecodeAction parses callback data produced by EncodeAction.
func DecodeAction(callbackData string) (conversation.Action, error) {
	unique, data, err := DecodeCallback(callbackData)
	if err != nil {
		return conversation.Action{}, err
	}

	unknown := fmt.Errorf("%w: %q", ErrUnknownCallback, callbackData)

	switch unique {
	case UniqueBank, UniqueCategory:
		id, err := parseID(data)
		if err != nil {
			return conversation.Action{}, unknown
		}
		if unique == UniqueBank {
			return conversation.ChooseBank(id), nil
		}
		return conversation.ChooseCategory(id), nil
	case UniquePercent:
		d, err := decimal.NewFromString(data)
		if err != nil || d.IsNegative() {
			return conversation.Action{}, unknown
		}
		return conversation.ChoosePercent(d.InexactFloat64()), nil
	case UniquePeriod:
		if !period.Valid(data) {
			return conversation.Action{}, unknown
		}
		return conversation.ChoosePeriod(data), nil
	case UniqueBack:
		switch data {
		case dataBank:
			return conversation.BackToBanks(), nil
		case dataCat:
			return conversation.BackToCategories(), nil
		}
	case UniqueExit:
		if data == "" {
			return conversation.Exit(), nil
		}
	case UniqueDelete:
		switch data {
		case dataEntries:
			return conversation.DeleteByEntries(), nil
		case dataCategories:
			return conversation.DeleteByCategories(), nil
		case dataAll:
			return conversation.DeleteAll(), nil
		}
	case UniqueToggle:
		if data == dataDone {
			return conversation.ConfirmSelection(), nil
		}
		id, err := parseID(data)
		if err != nil {
			return conversation.Action{}, unknown
		}
		return conversation.ToggleEntry(id), nil
	case UniqueDelCat:
		if data == dataDone {
			return conversation.ConfirmCategories(), nil
		}
		id, err := parseID(data)
		if err != nil {
			return conversation.Action{}, unknown
		}
		return conversation.ToggleCategory(id), nil
	case UniqueDelAll:
		switch data {
		case dataYes:
			return conversation.ConfirmDeleteAll(), nil
		case dataNo:
			return conversation.CancelDeleteAll(), nil
		}
	}

	return conversation.Action{}, unknown
}

func parseID(data string) (int64, error) {
	id, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("non-positive id %d", id)
	}
	return id, nil
}
