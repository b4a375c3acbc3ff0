package chainclient

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
)

// Client is a read-only view of the marketplace contract: entity reads,
// receipt lookups, block timestamps and event subscriptions. Every outbound
// call is bounded by the configured timeout.
type Client struct {
	eth      *ethclient.Client
	abi      abi.ABI
	contract common.Address
	timeout  time.Duration
}

func NewClient(rpcURL, contractAddress string, timeout time.Duration) (*Client, error) {
	if contractAddress == "" {
		return nil, errors.New("contract address is required")
	}

	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rpc endpoint: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(marketplaceABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse marketplace abi: %w", err)
	}

	return &Client{
		eth:      eth,
		abi:      parsed,
		contract: common.HexToAddress(contractAddress),
		timeout:  timeout,
	}, nil
}

func (c *Client) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// Item reads a single listing from the contract.
func (c *Client) Item(ctx context.Context, itemID string) (Item, error) {
	id, ok := new(big.Int).SetString(itemID, 10)
	if !ok {
		return Item{}, fmt.Errorf("invalid item id %q", itemID)
	}

	data, err := c.abi.Pack("getItem", id)
	if err != nil {
		return Item{}, fmt.Errorf("failed to pack getItem call: %w", err)
	}

	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		return Item{}, fmt.Errorf("getItem call failed: %w", err)
	}

	values, err := c.abi.Unpack("getItem", out)
	if err != nil || len(values) != 5 {
		return Item{}, fmt.Errorf("failed to unpack getItem result: %w", err)
	}

	seller, _ := values[0].(common.Address)
	name, _ := values[1].(string)
	description, _ := values[2].(string)
	price, _ := values[3].(*big.Int)
	isForSale, _ := values[4].(bool)
	if price == nil {
		return Item{}, errors.New("getItem result missing price")
	}

	return Item{
		ID:          itemID,
		Seller:      seller.Hex(),
		Name:        name,
		Description: description,
		Price:       weiToEther(price),
		IsForSale:   isForSale,
	}, nil
}

// ItemsForSale reads the ids currently listed and fetches each item.
// The per-item reads are issued concurrently to bound latency.
func (c *Client) ItemsForSale(ctx context.Context) ([]Item, error) {
	data, err := c.abi.Pack("getItemsForSale")
	if err != nil {
		return nil, fmt.Errorf("failed to pack getItemsForSale call: %w", err)
	}

	callCtx, cancel := c.callCtx(ctx)
	out, err := c.eth.CallContract(callCtx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("getItemsForSale call failed: %w", err)
	}

	values, err := c.abi.Unpack("getItemsForSale", out)
	if err != nil || len(values) != 1 {
		return nil, fmt.Errorf("failed to unpack getItemsForSale result: %w", err)
	}
	ids, _ := values[0].([]*big.Int)

	items := make([]Item, len(ids))
	errs := make([]error, len(ids))
	done := make(chan int, len(ids))
	for i, id := range ids {
		go func(i int, id string) {
			items[i], errs[i] = c.Item(ctx, id)
			done <- i
		}(i, id.String())
	}
	for range ids {
		<-done
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return items, nil
}

// TransactionReceipt looks up a receipt by hash. A transaction that has not
// been mined yet returns (nil, false, nil).
func (c *Client) TransactionReceipt(ctx context.Context, hash string) (*Receipt, bool, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	receipt, err := c.eth.TransactionReceipt(ctx, common.HexToHash(hash))
	if errors.Is(err, ethereum.NotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("receipt lookup failed: %w", err)
	}

	return &Receipt{
		Status:      receipt.Status,
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}, true, nil
}

// BlockTime returns the timestamp of the given block.
func (c *Client) BlockTime(ctx context.Context, number uint64) (time.Time, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	header, err := c.eth.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return time.Time{}, fmt.Errorf("block lookup failed: %w", err)
	}
	return time.Unix(int64(header.Time), 0), nil
}

// WatchMarketplaceEvents subscribes to the contract's logs and emits decoded
// events until ctx is cancelled or the subscription errors out. Logs that do
// not decode to a known event are skipped.
func (c *Client) WatchMarketplaceEvents(ctx context.Context) (<-chan Event, error) {
	logs := make(chan types.Log, 64)
	sub, err := c.eth.SubscribeFilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{c.contract},
	}, logs)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to contract logs: %w", err)
	}

	events := make(chan Event, 64)
	go func() {
		defer close(events)
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-sub.Err():
				if err != nil {
					log.Printf("Contract log subscription error: %v", err)
				}
				return
			case lg := <-logs:
				if ev, ok := c.decodeLog(lg); ok {
					events <- ev
				}
			}
		}
	}()
	return events, nil
}

func (c *Client) decodeLog(lg types.Log) (Event, bool) {
	if len(lg.Topics) == 0 {
		return Event{}, false
	}

	evABI, err := c.abi.EventByID(lg.Topics[0])
	if err != nil {
		return Event{}, false
	}

	args := make(map[string]interface{})
	if err := c.abi.UnpackIntoMap(args, evABI.Name, lg.Data); err != nil {
		log.Printf("Failed to decode %s event data: %v", evABI.Name, err)
		return Event{}, false
	}

	// itemId is the only indexed input on both events.
	if len(lg.Topics) > 1 {
		args["itemId"] = new(big.Int).SetBytes(lg.Topics[1].Bytes())
	}

	normalized := make(map[string]interface{}, len(args))
	for k, v := range args {
		switch val := v.(type) {
		case common.Address:
			normalized[k] = val.Hex()
		case *big.Int:
			if k == "price" {
				normalized[k] = weiToEther(val)
			} else {
				normalized[k] = val.String()
			}
		default:
			normalized[k] = v
		}
	}

	return Event{
		Name:        evABI.Name,
		Args:        normalized,
		TxHash:      lg.TxHash.Hex(),
		BlockNumber: lg.BlockNumber,
		Log: map[string]interface{}{
			"transactionHash": lg.TxHash.Hex(),
			"blockNumber":     lg.BlockNumber,
			"address":         lg.Address.Hex(),
		},
	}, true
}

func (c *Client) Close() {
	c.eth.Close()
}

// weiToEther renders a wei amount as a decimal ether string with trailing
// zeros trimmed, matching how prices are stored off-chain.
func weiToEther(wei *big.Int) string {
	s := new(big.Rat).SetFrac(new(big.Int).Set(wei), big.NewInt(params.Ether)).FloatString(18)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" {
		return "0"
	}
	return s
}
