package xembed

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// optionRule maps one public option name onto the query parameter the remote
// content expects. Names differ where the remote predates the public surface.
type optionRule struct {
	param string
}

// optionTable returns the recognized option table for an experience type.
// Every experience type must supply a table; the switch is exhaustive.
func optionTable(t ExperienceType) map[string]optionRule {
	switch t {
	case ExperienceDashboard:
		return dashboardOptionTable
	case ExperienceVisual:
		return visualOptionTable
	default:
		return nil
	}
}

var dashboardOptionTable = map[string]optionRule{
	OptionLocale:               {param: "locale"},
	OptionSingleSheet:          {param: "sheetTabsDisabled"},
	OptionUndoRedoDisabled:     {param: "undoRedoDisabled"},
	OptionResetDisabled:        {param: "resetDisabled"},
	OptionPrintEnabled:         {param: "printEnabled"},
	OptionFooterPaddingEnabled: {param: "footerPaddingEnabled"},
}

var visualOptionTable = map[string]optionRule{
	OptionLocale:           {param: "locale"},
	OptionFitToIframeWidth: {param: "fitToIframeWidth"},
}

// transformOptions serializes content options against the per-type table.
// Recognized keys are renamed per the table; unrecognized keys are forwarded
// verbatim and collected for reporting. Parameter collections are flattened
// to a name -> values mapping and encoded into the fragment (namespaced
// "p.{Name}") so they stay out of the remote content's initial-load logs.
func transformOptions(t ExperienceType, opts ContentOptions) (query, fragment, unrecognized []string) {
	if len(opts) == 0 {
		return nil, nil, nil
	}
	table := optionTable(t)

	byParam := make(map[string]string, len(opts))
	for _, key := range sortedKeys(opts) {
		if key == OptionParameters {
			fragment = encodeParameters(opts[key])
			continue
		}
		rule, ok := table[key]
		if !ok {
			unrecognized = append(unrecognized, key)
			byParam[key] = formatOptionValue(opts[key])
			continue
		}
		byParam[rule.param] = formatOptionValue(opts[key])
	}

	for _, param := range sortedKeys(byParam) {
		query = append(query, url.QueryEscape(param)+"="+url.QueryEscape(byParam[param]))
	}
	return query, fragment, unrecognized
}

// encodeParameters flattens a parameter collection into sorted fragment
// pairs. Both the public list form and the reduced mapping form are accepted.
func encodeParameters(v any) []string {
	var values map[string][]string
	switch p := v.(type) {
	case []Parameter:
		values = ValuesFromParameters(p)
	case map[string][]string:
		values = p
	default:
		return nil
	}

	out := make([]string, 0, len(values))
	for _, name := range sortedKeys(values) {
		out = append(out, "p."+url.QueryEscape(name)+"="+url.QueryEscape(strings.Join(values[name], ",")))
	}
	return out
}

func formatOptionValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
