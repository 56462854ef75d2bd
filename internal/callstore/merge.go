package callstore

import "time"

// Merge folds src into dst following the store's additive merge contract:
//
//   - non-empty (non-zero) fields overwrite, empty fields are no-ops;
//   - a terminal status is monotonic: a non-terminal status never
//     overwrites it (a later terminal status may, last-committed-wins);
//   - applying the same update twice yields the same record as once.
//
// Both the memory and Postgres stores implement exactly this contract, so a
// poll write racing a webhook write cannot clobber a terminal outcome.
func Merge(dst *CallRecord, src CallRecord, now time.Time) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.PhoneNumber != "" {
		dst.PhoneNumber = src.PhoneNumber
	}
	if src.Language != "" {
		dst.Language = src.Language
	}
	if src.CallID != "" && src.CallID != PendingCallID {
		dst.CallID = src.CallID
	}
	if src.Status != "" {
		if !IsTerminal(dst.Status) || IsTerminal(src.Status) {
			dst.Status = src.Status
		}
	}
	if src.DurationSeconds > 0 {
		dst.DurationSeconds = src.DurationSeconds
	}
	if src.CallStartTime != "" {
		dst.CallStartTime = src.CallStartTime
	}
	if src.CallEndTime != "" {
		dst.CallEndTime = src.CallEndTime
	}
	if src.Cost > 0 {
		dst.Cost = src.Cost
	}
	if src.ErrorMessage != "" {
		dst.ErrorMessage = src.ErrorMessage
	}
	dst.UpdatedAt = now
}
