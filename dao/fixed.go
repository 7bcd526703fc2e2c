package dao

import (
	"fmt"

	"github.com/holiman/uint256"
)

// WeightScale is the fixed-point scale of Weight: Weight(100) is 1.00.
const WeightScale = 100

// Weight is a voting weight with two implied decimal digits.
type Weight uint64

// WholeWeight converts whole weight units (as used by the quorum) to Weight.
func WholeWeight(units uint64) Weight {
	return Weight(units * WeightScale)
}

func (w Weight) String() string {
	return fmt.Sprintf("%d.%02d", uint64(w)/WeightScale, uint64(w)%WeightScale)
}

// SharePercent returns floor(part*100/total), or 0 if total is 0.
func SharePercent(part, total Weight) uint64 {
	if total == 0 {
		return 0
	}
	return uint64(part) * 100 / uint64(total)
}

// ValueUnit is one whole native coin in base units (1e18).
var ValueUnit = uint256.NewInt(1_000_000_000_000_000_000)

// RewardFor returns amount*ratio/ValueUnit, floored.
func RewardFor(amount *uint256.Int, ratio uint64) *uint256.Int {
	reward, overflow := new(uint256.Int).MulDivOverflow(amount, uint256.NewInt(ratio), ValueUnit)
	if overflow {
		return new(uint256.Int)
	}
	return reward
}
