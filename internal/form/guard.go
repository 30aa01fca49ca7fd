package form

import "studio-data/internal/domain"

// 关闭守卫状态机（每个打开的编辑会话一份）：
//
//	clean --edit--> dirty
//	dirty --attempt close--> confirming_discard（弹确认框）
//	confirming_discard --discard--> clean（回滚到快照后放行关闭）
//	confirming_discard --stay--> dirty（关掉确认框，表单不动）
//	confirming_discard --save_and_exit--> 提交流程（成功关闭 / 失败回 dirty）
//	clean --attempt close--> 直接关闭
//
// 关闭确认框而不做选择等价于 stay。

// Reconcile 根据脏判定结果推进 clean/dirty（confirming 状态下弹窗未决，不动）
func Reconcile(state domain.GuardState, dirty bool) domain.GuardState {
	if state == domain.GuardConfirmingDiscard {
		return state
	}
	if dirty {
		return domain.GuardDirty
	}
	return domain.GuardClean
}

// AttemptClose 处理一次关闭请求，返回新状态和是否允许立即关闭
func AttemptClose(state domain.GuardState) (domain.GuardState, bool) {
	switch state {
	case domain.GuardClean:
		return domain.GuardClean, true
	case domain.GuardDirty:
		return domain.GuardConfirmingDiscard, false
	default:
		return domain.GuardConfirmingDiscard, false
	}
}

// GuardOutcome 确认框选择的处理结果
type GuardOutcome struct {
	State domain.GuardState
	// Close 是否关闭编辑器（discard 为 true；save_and_exit 由提交结果决定）
	Close bool
	// ResetToSnapshot 是否把表单值回滚到快照
	ResetToSnapshot bool
	// Submit 是否进入提交流程
	Submit bool
}

// ResolveChoice 处理确认框里的用户选择。
// save_and_exit 只给出 Submit 指令，最终状态由提交结果决定：
// 成功按 clean 处理并关闭；失败回 dirty 且不再弹守卫框（让用户看到提交错误）。
func ResolveChoice(choice domain.GuardChoice) GuardOutcome {
	switch choice {
	case domain.GuardChoiceDiscard:
		return GuardOutcome{State: domain.GuardClean, Close: true, ResetToSnapshot: true}
	case domain.GuardChoiceSaveAndExit:
		return GuardOutcome{State: domain.GuardDirty, Submit: true}
	default: // stay 以及关闭弹窗
		return GuardOutcome{State: domain.GuardDirty}
	}
}
