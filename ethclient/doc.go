// Package ethclient provides a JSON-RPC client for Ethereum-compatible nodes
// covering the node queries and the contract deployment used by web3tools.
//
// # Timeouts
//
// A Client carries a single request timeout fixed at construction. Every
// JSON-RPC request runs under a context bounded by that timeout, and HTTP
// endpoints additionally use an http.Client with the same limit. There is no
// retry policy: a failed request returns the transport's error as is.
//
// # Blocks
//
// Block keeps the object the node returned next to its typed fields, and
// encoding a decoded Block to JSON reproduces that object. Pending blocks
// have nil Number, Hash, Nonce and Miner.
//
// # Receipts
//
// TransactionReceipt returns a nil receipt and a nil error for transactions
// that are not mined yet, mirroring the JSON null the node returns.
//
// # Deployments
//
// DeployContract submits the creation transaction with eth_sendTransaction,
// setting the creation code as both input and data. It relies on an account
// managed and unlocked by the node. It then polls for the receipt every
// PollInterval until the transaction is mined:
//
//	client, err := ethclient.Dial("http://localhost:8545")
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	parsed, err := abi.JSON(strings.NewReader(tokenABI))
//	if err != nil {
//	    return err
//	}
//	dep, err := client.DeployContract(ctx, parsed, tokenBin, owner, 3_000_000)
//	if err != nil {
//	    return err
//	}
//	fmt.Println("deployed at", dep.Address)
//
// The pending transaction hash is not reported before mining completes.
package ethclient
