// Copyright (c) 2026 The zecd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/zecnode/zecd/chaincfg"
	"github.com/zecnode/zecd/wire"
)

// namedVerifier is a comparable verifier that accepts everything.
type namedVerifier string

func (namedVerifier) VerifyTx(*wire.MsgTx, *VerifyContext) error { return nil }

// TestVerifiersFor ensures transactions are routed to the verifiers of the
// value pools they touch.
func TestVerifiersFor(t *testing.T) {
	t.Parallel()

	params := chaincfg.RegNetParams()
	params.MigrationActivationHeight = 10
	transparent := namedVerifier("transparent")
	legacy := namedVerifier("legacy")
	current := namedVerifier("current")
	all := Verifiers{Transparent: transparent, Legacy: legacy, Current: current}

	withJoinSplit := func(tx *wire.MsgTx) *wire.MsgTx {
		tx.JoinSplits = []*wire.JoinSplit{{VPubNew: 1}}
		return tx
	}
	withShielded := func(tx *wire.MsgTx) *wire.MsgTx {
		tx.ShieldedOutputs = make([]wire.OutputDescription, 1)
		return tx
	}
	spend := func() *wire.MsgTx {
		return testSpendTx([]wire.OutPoint{{Index: 0}}, 1)
	}
	noInputs := func() *wire.MsgTx {
		tx := wire.NewMsgTx()
		tx.AddTxOut(&wire.TxOut{Value: 1})
		return tx
	}

	tests := []struct {
		name      string
		verifiers Verifiers
		tx        *wire.MsgTx
		txIdx     int
		height    int64
		want      []ProofVerifier
	}{{
		name:      "coinbase",
		verifiers: all,
		tx:        testCoinbase(1, 1),
		txIdx:     0,
		height:    5,
		want:      nil,
	}, {
		name:      "transparent spend",
		verifiers: all,
		tx:        spend(),
		txIdx:     1,
		height:    5,
		want:      []ProofVerifier{transparent},
	}, {
		name:      "joinsplit before migration",
		verifiers: all,
		tx:        withJoinSplit(noInputs()),
		txIdx:     1,
		height:    9,
		want:      []ProofVerifier{legacy},
	}, {
		name:      "joinsplit at migration",
		verifiers: all,
		tx:        withJoinSplit(noInputs()),
		txIdx:     1,
		height:    10,
		want:      []ProofVerifier{current},
	}, {
		name:      "shielded output with transparent input",
		verifiers: all,
		tx:        withShielded(spend()),
		txIdx:     2,
		height:    5,
		want:      []ProofVerifier{transparent, current},
	}, {
		name:      "shielded and joinsplit after migration",
		verifiers: all,
		tx:        withShielded(withJoinSplit(noInputs())),
		txIdx:     1,
		height:    12,
		want:      []ProofVerifier{current},
	}, {
		name:      "shielded and joinsplit before migration",
		verifiers: all,
		tx:        withShielded(withJoinSplit(noInputs())),
		txIdx:     1,
		height:    3,
		want:      []ProofVerifier{legacy, current},
	}, {
		name:      "unset verifiers are skipped",
		verifiers: Verifiers{Current: current},
		tx:        withJoinSplit(spend()),
		txIdx:     1,
		height:    3,
		want:      nil,
	}}

	for _, test := range tests {
		chain := &BlockChain{chainParams: params, verifiers: test.verifiers}
		got := chain.verifiersFor(test.tx, test.txIdx, test.height)
		if !reflect.DeepEqual(got, test.want) {
			t.Errorf("%s: got verifiers %v, want %v", test.name, got,
				test.want)
		}
	}
}

// TestVerifyProofs ensures every routed transaction is verified with its
// context and that a failure is reported with the verifier error attached.
func TestVerifyProofs(t *testing.T) {
	t.Parallel()

	errBadSig := errors.New("bad signature")
	var mtx sync.Mutex
	seen := make(map[int]VerifyContext)
	failIdx := -1
	transparent := VerifierFunc(func(tx *wire.MsgTx, vctx *VerifyContext) error {
		mtx.Lock()
		defer mtx.Unlock()
		seen[vctx.TxIndex] = *vctx
		if vctx.TxIndex == failIdx {
			return errBadSig
		}
		return nil
	})
	chain := &BlockChain{
		chainParams: chaincfg.RegNetParams(),
		verifiers:   Verifiers{Transparent: transparent},
	}

	prevOut := &UtxoEntry{amount: 7}
	jobs := []verifyJob{
		{txIdx: 0, tx: testCoinbase(1, 1)},
		{txIdx: 1, tx: testSpendTx([]wire.OutPoint{{Index: 0}}, 1),
			prevOuts: []*UtxoEntry{prevOut}},
		{txIdx: 2, tx: testSpendTx([]wire.OutPoint{{Index: 1}}, 1),
			prevOuts: []*UtxoEntry{prevOut}},
	}
	hash := wire.BlockHash{0x01}
	if err := chain.verifyProofs(&hash, 20, jobs); err != nil {
		t.Fatalf("unexpected verification failure: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("unexpected number of verified transactions %d", len(seen))
	}
	for _, idx := range []int{1, 2} {
		vctx, ok := seen[idx]
		if !ok {
			t.Fatalf("transaction %d was not verified", idx)
		}
		if vctx.BlockHash != hash || vctx.Height != 20 ||
			len(vctx.PrevOuts) != 1 || vctx.PrevOuts[0] != prevOut {
			t.Fatalf("unexpected context for transaction %d: %+v", idx,
				vctx)
		}
	}

	failIdx = 2
	err := chain.verifyProofs(&hash, 20, jobs)
	if !errors.Is(err, ErrProofVerification) {
		t.Fatalf("unexpected error kind: %v", err)
	}
	if !errors.Is(err, errBadSig) {
		t.Fatalf("verifier error is not attached: %v", err)
	}
}
