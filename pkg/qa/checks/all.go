// Package checks registers every built-in rule with the default registry.
//
// Import it for side effects:
//
//	import _ "github.com/leapstack-labs/sceneqa/pkg/qa/checks"
package checks

import (
	_ "github.com/leapstack-labs/sceneqa/pkg/qa/checks/animation"    // AN01..AN05
	_ "github.com/leapstack-labs/sceneqa/pkg/qa/checks/geometry"     // GE01..GE08
	_ "github.com/leapstack-labs/sceneqa/pkg/qa/checks/modelling"    // MD01..MD03
	_ "github.com/leapstack-labs/sceneqa/pkg/qa/checks/renderlayers" // RL01, RL02
	_ "github.com/leapstack-labs/sceneqa/pkg/qa/checks/rigging"      // RG01, RG02, SK01, SK02
	_ "github.com/leapstack-labs/sceneqa/pkg/qa/checks/scenerules"   // SC01..SC12
	_ "github.com/leapstack-labs/sceneqa/pkg/qa/checks/shading"      // SH01..SH03, TX01, RS01..RS08
	_ "github.com/leapstack-labs/sceneqa/pkg/qa/checks/uv"           // UV01, UV02
)
