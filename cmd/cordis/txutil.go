package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/cometbft/cometbft/rpc/client/http"

	"github.com/opencordis/cordis/crypto"
	"github.com/opencordis/cordis/tx"
)

// sendGovTx signs payload with the key at skey and broadcasts the envelope.
// A zero nonce is filled from the sender's on-chain account.
func sendGovTx(url string, skey string, nonce uint64, typ tx.GovTxType, payload any, noSend bool) {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		fmt.Printf("new client err:%v\n", err)
		return
	}
	ctx := context.Background()
	gres, err := cli.Genesis(ctx)
	if err != nil {
		fmt.Printf("get chain genesis err:%v\n", err)
		return
	}
	chainId := gres.Genesis.ChainID

	pv, err := crypto.LoadFilePV(skey)
	if err != nil {
		fmt.Printf("load key err:%v\n", err)
		return
	}
	sender := pv.Address()
	if nonce == 0 {
		act, err := queryAccount(url, 0, sender)
		if err != nil {
			return
		}
		nonce = act.Nonce
	}

	btx := tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    typ,
		Nonce:   nonce,
		Sender:  sender,
		Tx:      payload,
	}
	dat, err := btx.SigData([]byte(chainId))
	if err != nil {
		fmt.Printf("tx sign data err:%v\n", err)
		return
	}
	sig, err := pv.Sign(dat)
	if err != nil {
		fmt.Printf("sign tx err:%v\n", err)
		return
	}
	println("pubkey:", hex.EncodeToString(pv.PublicKey()))
	println("address:", sender)
	if noSend {
		fmt.Println("transaction signature:")
		fmt.Println(hex.EncodeToString(sig))
		return
	}
	btx.Sig = [][]byte{sig}
	dat, err = json.Marshal(btx)
	if err != nil {
		fmt.Printf("encode tx err:%v\n", err)
		return
	}
	res, err := cli.BroadcastTxSync(ctx, dat)
	if err != nil {
		fmt.Printf("broadcast tx err:%v\n", err)
		return
	}
	dat, _ = json.Marshal(res)
	fmt.Printf("%v\n", string(dat))
}
