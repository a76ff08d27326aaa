// subpay-signer produces payment authorization signatures offline. The API
// service never holds the signing key; operators run this tool wherever the
// key lives and hand the signature to the buyer.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"

	"github.com/edvin/subpay/internal/eip712"
	"github.com/edvin/subpay/internal/model"
)

type signRequest struct {
	Domain struct {
		Name              string `yaml:"name"`
		Version           string `yaml:"version"`
		ChainID           uint64 `yaml:"chain_id"`
		VerifyingContract string `yaml:"verifying_contract"`
	} `yaml:"domain"`
	Payment struct {
		Recipient      string `yaml:"recipient"`
		SubscriptionID string `yaml:"subscription_id"`
		Amount         string `yaml:"amount"`
		Deadline       uint64 `yaml:"deadline"`
	} `yaml:"payment"`
}

func main() {
	requestPath := flag.String("request", "", "YAML file describing the domain and payment (required)")
	keyHex := flag.String("key", "", "Hex-encoded signing key (defaults to SIGNER_KEY)")
	flag.Parse()

	if *requestPath == "" {
		fmt.Fprintln(os.Stderr, "usage: subpay-signer -request <file.yaml> [-key <hex>]")
		os.Exit(1)
	}
	if *keyHex == "" {
		*keyHex = os.Getenv("SIGNER_KEY")
	}
	if *keyHex == "" {
		fatal("no signing key: pass -key or set SIGNER_KEY")
	}

	raw, err := os.ReadFile(*requestPath)
	if err != nil {
		fatal("read request: %v", err)
	}
	var req signRequest
	if err := yaml.Unmarshal(raw, &req); err != nil {
		fatal("parse request: %v", err)
	}

	if !common.IsHexAddress(req.Domain.VerifyingContract) {
		fatal("domain.verifying_contract is not a valid address")
	}
	if !common.IsHexAddress(req.Payment.Recipient) {
		fatal("payment.recipient is not a valid address")
	}
	if len(req.Payment.SubscriptionID) == 0 || len(req.Payment.SubscriptionID) > model.MaxSubscriptionIDLength {
		fatal("payment.subscription_id must be 1-%d bytes", model.MaxSubscriptionIDLength)
	}

	amount, err := uint256.FromDecimal(req.Payment.Amount)
	if err != nil {
		fatal("payment.amount: %v", err)
	}
	if amount.BitLen() > 192 {
		fatal("payment.amount exceeds 192 bits")
	}

	key, err := crypto.HexToECDSA(*keyHex)
	if err != nil {
		fatal("parse signing key: %v", err)
	}

	domain := eip712.Domain{
		Name:              req.Domain.Name,
		Version:           req.Domain.Version,
		ChainID:           req.Domain.ChainID,
		VerifyingContract: common.HexToAddress(req.Domain.VerifyingContract),
	}
	recipient := common.HexToAddress(req.Payment.Recipient)

	sig, err := eip712.Sign(domain, key, recipient, req.Payment.SubscriptionID, amount, req.Payment.Deadline)
	if err != nil {
		fatal("sign: %v", err)
	}

	out := map[string]string{
		"signer":    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		"recipient": recipient.Hex(),
		"digest":    domain.Digest(recipient, req.Payment.SubscriptionID, amount, req.Payment.Deadline).Hex(),
		"signature": hexutil.Encode(sig),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
